// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"strings"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/vm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newDisasmCmd(v *viper.Viper) *cobra.Command {
	var (
		disasmExpression bool
		disasmYAML       bool
	)
	cmd := &cobra.Command{
		Use:   "disasm [flags] FILE|EXPR...",
		Short: "Print the bytecode compiled for sxp code",
		Long: `Compile each top-level form and print its bytecode.  Forms are also
evaluated so that later forms can use the vars and macros they define.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, err := readSources(args, disasmExpression)
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
					fn, err := env.Compile(form)
					if err != nil {
						return renderError(cmd, v, err, srcs)
					}
					if disasmYAML {
						b, err := yaml.Marshal([]interface{}{fn.Describe()})
						if err != nil {
							return err
						}
						_, err = out.Write(b)
						if err != nil {
							return err
						}
					} else {
						fmt.Fprintf(out, ";; %s\n%s\n", lisp.PrStr(form), fn.Disassemble())
					}
					if _, err := vm.New(env.Runtime).Run(fn); err != nil {
						return renderError(cmd, v, err, srcs)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&disasmExpression, "expression", "e", false,
		"Interpret arguments as sxp expressions")
	cmd.Flags().BoolVar(&disasmYAML, "yaml", false,
		"Print a YAML description of each compiled function")
	return cmd
}
