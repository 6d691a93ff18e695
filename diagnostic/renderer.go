// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/muesli/reflow/wordwrap"
)

// tabWidth is the number of columns a tab occupies in rendered source.
const tabWidth = 4

// Renderer formats diagnostics as annotated source snippets.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// Width wraps notes longer than Width columns.  Zero disables wrapping.
	Width int

	// Sources holds the text of sources which are not files, such as
	// expressions given on the command line, keyed by source name.
	Sources map[string]string

	// SourceReader reads source file contents. If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)
}

// snippet is a span resolved against its source text.
type snippet struct {
	Span
	text  string // the source line, empty when unavailable
	found bool
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	bw := bufio.NewWriter(w)
	pw := &printer{w: bw, p: choosePalette(r.Color, w)}

	pw.header(d.Severity, d.Message)
	snippets := make([]snippet, len(d.Spans))
	gutter := 0
	for i, span := range d.Spans {
		snippets[i] = r.resolve(span)
		if snippets[i].found {
			gutter = max(gutter, len(strconv.Itoa(span.Line)))
		}
	}
	for _, s := range snippets {
		pw.snippet(s, gutter)
	}
	for _, note := range d.Notes {
		pw.note(r.wrapNote(note))
	}
	if pw.err != nil {
		return pw.err
	}
	return bw.Flush()
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

const notePrefix = "   = note: "

// wrapNote wraps note to the renderer width, aligning continuation lines
// with the note text.
func (r *Renderer) wrapNote(note string) string {
	if r.Width <= len(notePrefix) {
		return note
	}
	wrapped := wordwrap.String(note, r.Width-len(notePrefix))
	return strings.ReplaceAll(wrapped, "\n", "\n"+strings.Repeat(" ", len(notePrefix)))
}

func (r *Renderer) resolve(span Span) snippet {
	s := snippet{Span: span}
	if span.Line <= 0 || span.File == "" {
		return s
	}
	var data []byte
	if src, ok := r.Sources[span.File]; ok {
		data = []byte(src)
	} else {
		read := r.SourceReader
		if read == nil {
			read = os.ReadFile
		}
		b, err := read(span.File)
		if err != nil {
			return s
		}
		data = b
	}
	lines := strings.Split(string(data), "\n")
	if span.Line > len(lines) {
		return s
	}
	s.text = strings.TrimSuffix(lines[span.Line-1], "\r")
	s.found = s.text != ""
	return s
}

// printer writes colored output and captures the first error,
// short-circuiting subsequent writes.
type printer struct {
	w   io.Writer
	p   palette
	err error
}

func (pw *printer) printf(format string, a ...interface{}) {
	if pw.err != nil {
		return
	}
	_, pw.err = fmt.Fprintf(pw.w, format, a...)
}

func (pw *printer) header(sev Severity, msg string) {
	color := pw.p.boldRed
	switch sev {
	case SeverityWarning:
		color = pw.p.yellow
	case SeverityNote:
		color = pw.p.boldCyan
	}
	pw.printf("%s%s%s%s: %s%s%s\n", color, pw.p.bold, sev, pw.p.reset, pw.p.bold, msg, pw.p.reset)
}

func (pw *printer) note(text string) {
	pw.printf("   %s=%s note: %s\n", pw.p.boldCyan, pw.p.reset, text)
}

// gutterLine writes a line of the source gutter, numbered when label is
// not empty.
func (pw *printer) gutterLine(width int, label, text string) {
	pw.printf(" %s%*s |%s%s\n", pw.p.boldBlue, width, label, pw.p.reset, text)
}

func (pw *printer) snippet(s snippet, gutter int) {
	pw.printf("  %s-->%s %s\n", pw.p.boldBlue, pw.p.reset, location(s.Span))
	if !s.found {
		pw.printf("   %s|%s\n", pw.p.boldBlue, pw.p.reset)
		return
	}
	col := max(s.Col, 1)
	end := s.EndCol
	if end <= 0 {
		end = tokenEnd(s.text, col)
	}
	end = max(end, col)

	var prefix string
	if col-1 <= len(s.text) {
		prefix = s.text[:col-1]
	}
	underline := strings.Repeat(" ", displayWidth(prefix)) +
		pw.p.boldRed + strings.Repeat("^", end-col+1) + pw.p.reset
	if s.Label != "" {
		underline += " " + pw.p.boldRed + s.Label + pw.p.reset
	}

	pw.gutterLine(gutter, "", "")
	pw.gutterLine(gutter, strconv.Itoa(s.Line), "  "+strings.ReplaceAll(s.text, "\t", strings.Repeat(" ", tabWidth)))
	pw.gutterLine(gutter, "", "  "+underline)
	pw.gutterLine(gutter, "", "")
}

// location formats the position of span as file:line:col, omitting the parts
// which are unknown.
func location(span Span) string {
	switch {
	case span.Line <= 0:
		return span.File
	case span.Col <= 0:
		return fmt.Sprintf("%s:%d", span.File, span.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", span.File, span.Line, span.Col)
	}
}

// tokenEnd returns the 1-based column of the last byte of the token starting
// at col.  Tokens end at whitespace, commas and delimiters.
func tokenEnd(text string, col int) int {
	if col > len(text) {
		return col
	}
	i := col - 1
	for i < len(text) {
		ch, size := utf8.DecodeRuneInString(text[i:])
		if strings.ContainsRune(" \t,()[]{}", ch) {
			break
		}
		i += size
	}
	return max(i, col)
}

// displayWidth returns the display width of s with tabs expanded.
func displayWidth(s string) int {
	w := 0
	for _, ch := range s {
		if ch == '\t' {
			w += tabWidth
		} else {
			w++
		}
	}
	return w
}
