// Copyright © 2021 The ELPS authors

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/sxp/docs"
	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/libhelp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDocCmd(v *viper.Viper) *cobra.Command {
	var (
		docNamespace      bool
		docSourceFile     string
		docListNamespaces bool
		docMissing        bool
		docGuide          bool
	)
	cmd := &cobra.Command{
		Use:   "doc [flags] QUERY",
		Short: "Show sxp documentation for vars and namespaces",
		Long: `Show built-in documentation for sxp functions, macros and namespaces.

By default, looks up a var by name.  Use -n to list the public vars of a
namespace.  Use -f to load a source file first (useful for documenting your
own code).

Examples:
  sxp doc map                     Show docs for the map function
  sxp doc defn                    Show docs for the defn macro
  sxp doc math/sin                Show docs for a qualified symbol
  sxp doc -n math                 List the public vars of math
  sxp doc -f mylib.sxp my-func    Load a file, then show docs for my-func
  sxp doc -l                      List the loaded namespaces
  sxp doc --guide                 Print the language guide`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if docGuide {
				_, err := io.WriteString(cmd.OutOrStdout(), docs.LangGuide)
				return err
			}
			if !docListNamespaces && !docMissing && len(args) != 1 {
				return cmd.Help()
			}
			env, err := newEnv(v, cmd)
			if err != nil {
				return err
			}
			if docSourceFile != "" {
				srcs, err := readSources([]string{docSourceFile}, false)
				if err != nil {
					return err
				}
				if _, err := env.LoadString(srcs[0].name, srcs[0].text); err != nil {
					return renderError(cmd, v, err, srcs)
				}
			}
			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush() //nolint:errcheck // best-effort flush on exit
			rt := env.Runtime
			switch {
			case docListNamespaces:
				return libhelp.RenderNamespaceList(out, rt)
			case docMissing:
				missing := libhelp.CheckMissing(rt)
				for _, m := range missing {
					fmt.Fprintf(out, "%s %s has no documentation\n", m.Kind, m.Name)
				}
				if len(missing) > 0 {
					return fmt.Errorf("%d vars missing documentation", len(missing))
				}
				return nil
			case docNamespace:
				return libhelp.RenderNamespace(out, rt, args[0])
			}
			sym, err := readSymbol(rt, args[0])
			if err != nil {
				return err
			}
			return libhelp.RenderVar(out, rt, sym)
		},
	}
	cmd.Flags().BoolVarP(&docNamespace, "namespace", "n", false,
		"Interpret the argument as a namespace name.")
	cmd.Flags().StringVarP(&docSourceFile, "source-file", "f", "",
		"Evaluate a source file before querying documentation.")
	cmd.Flags().BoolVarP(&docListNamespaces, "list-namespaces", "l", false,
		"List all namespaces loaded in the runtime.")
	cmd.Flags().BoolVar(&docMissing, "missing", false,
		"Report public vars which have no documentation.")
	cmd.Flags().BoolVar(&docGuide, "guide", false,
		"Print the language guide.")
	return cmd
}

func readSymbol(rt *lisp.Runtime, query string) (*lisp.Symbol, error) {
	forms, err := rt.Reader.Read("query", strings.NewReader(query))
	if err != nil {
		return nil, err
	}
	if len(forms) != 1 {
		return nil, fmt.Errorf("query is not a symbol: %s", query)
	}
	sym, ok := forms[0].(*lisp.Symbol)
	if !ok {
		return nil, fmt.Errorf("query is not a symbol: %s", query)
	}
	return sym, nil
}
