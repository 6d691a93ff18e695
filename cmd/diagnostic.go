// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"os"

	"github.com/luthersystems/sxp/diagnostic"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// source is a named source text given on the command line.
type source struct {
	name string
	text string
	// file is true when text was read from the file called name.
	file bool
}

// readSources returns the sources named by args.  When expr is true each
// argument is the source text of an expression.
func readSources(args []string, expr bool) ([]source, error) {
	srcs := make([]source, len(args))
	for i, arg := range args {
		if expr {
			srcs[i] = source{name: fmt.Sprintf("<expr %d>", i+1), text: arg}
			continue
		}
		b, err := os.ReadFile(arg) //#nosec G304
		if err != nil {
			return nil, err
		}
		srcs[i] = source{name: arg, text: string(b), file: true}
	}
	return srcs, nil
}

func newRenderer(v *viper.Viper, srcs []source) *diagnostic.Renderer {
	r := &diagnostic.Renderer{
		Color:   diagnostic.ParseColorMode(v.GetString(keyColor)),
		Width:   100,
		Sources: make(map[string]string, len(srcs)),
	}
	for _, src := range srcs {
		r.Sources[src.name] = src.text
	}
	return r
}

// renderError writes err to the command's stderr as an annotated diagnostic
// and returns errReported.
func renderError(cmd *cobra.Command, v *viper.Viper, err error, srcs []source) error {
	d := diagnostic.FromError(err)
	_ = newRenderer(v, srcs).Render(cmd.ErrOrStderr(), d)
	return errReported
}
