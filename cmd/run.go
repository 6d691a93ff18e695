// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"strings"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/x/profiler"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	var (
		runExpression bool
		runPrint      bool
		runCallgrind  string
	)
	cmd := &cobra.Command{
		Use:   "run [flags] FILE|EXPR...",
		Short: "Run sxp code",
		Long: `Run sxp code supplied via the command line or files.  Each source is
evaluated in order in a single environment, starting in the user namespace.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, err := readSources(args, runExpression)
			if err != nil {
				return err
			}
			env, err := newEnv(v, cmd)
			if err != nil {
				return err
			}
			if runCallgrind != "" {
				prof := profiler.NewCallgrindProfiler(env.Runtime)
				if err := prof.SetFile(runCallgrind); err != nil {
					return err
				}
				if err := prof.Enable(); err != nil {
					return err
				}
				defer func() {
					if err := prof.Complete(); err != nil {
						env.Runtime.Logger.WithError(err).Error("failed to write callgrind profile")
					}
				}()
			}
			out := cmd.OutOrStdout()
			for _, src := range srcs {
				forms, err := env.Runtime.Reader.Read(src.name, strings.NewReader(src.text))
				if err != nil {
					return renderError(cmd, v, err, srcs)
				}
				for _, form := range forms {
					val, err := env.Eval(form)
					if err != nil {
						return renderError(cmd, v, err, srcs)
					}
					if runPrint {
						if err := lisp.Realize(val); err != nil {
							return renderError(cmd, v, err, srcs)
						}
						fmt.Fprintln(out, lisp.PrStr(val))
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&runExpression, "expression", "e", false,
		"Interpret arguments as sxp expressions")
	cmd.Flags().BoolVarP(&runPrint, "print", "p", false,
		"Print expression values to stdout")
	cmd.Flags().StringVar(&runCallgrind, "callgrind", "",
		"Write a callgrind profile of the run to the given file")
	return cmd
}
