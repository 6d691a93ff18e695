// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"strings"

	"github.com/luthersystems/sxp/lisp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newExpandCmd(v *viper.Viper) *cobra.Command {
	var (
		expandExpression bool
		expandOnce       bool
		expandEval       bool
	)
	cmd := &cobra.Command{
		Use:   "expand [flags] FILE|EXPR...",
		Short: "Print the macro expansion of sxp code",
		Long: `Print the macroexpansion of each top-level form.  Only the outermost
form is expanded, as by macroexpand.  With --eval each form is evaluated after
it is printed so that later forms can use the macros it defines.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, err := readSources(args, expandExpression)
			if err != nil {
				return err
			}
			env, err := newEnv(v, cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, src := range srcs {
				forms, err := env.Runtime.Reader.Read(src.name, strings.NewReader(src.text))
				if err != nil {
					return renderError(cmd, v, err, srcs)
				}
				for _, form := range forms {
					var x lisp.Value
					if expandOnce {
						x, err = env.ExpandOne(form)
					} else {
						x, err = env.Expand(form)
					}
					if err != nil {
						return renderError(cmd, v, err, srcs)
					}
					fmt.Fprintln(out, lisp.PrStr(x))
					if expandEval {
						if _, err := env.Eval(form); err != nil {
							return renderError(cmd, v, err, srcs)
						}
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&expandExpression, "expression", "e", false,
		"Interpret arguments as sxp expressions")
	cmd.Flags().BoolVarP(&expandOnce, "once", "1", false,
		"Expand each form once, as by macroexpand-1")
	cmd.Flags().BoolVar(&expandEval, "eval", false,
		"Evaluate each form after printing its expansion")
	return cmd
}
