// Copyright © 2018 The ELPS authors

// Package cmd implements the sxp command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/compiler"
	"github.com/luthersystems/sxp/lisp/lisplib"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys.  Each can be set by flag, by an SXP_ environment
// variable (e.g. SXP_MAX_FRAMES) or in the config file.
const (
	keyColor     = "color"
	keyLogLevel  = "log-level"
	keyMaxStack  = "max-stack"
	keyMaxFrames = "max-frames"
	keyTrace     = "trace"
)

// errReported is returned by commands which have already rendered their
// error to stderr.
var errReported = errors.New("error reported")

// Execute runs the sxp command line and exits the process on failure.  This
// is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// NewRootCmd returns the sxp command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string
	root := &cobra.Command{
		Use:   "sxp",
		Short: "SXP: a Lisp compiled to bytecode",
		Long: `SXP is a Clojure-style Lisp compiled to bytecode and executed on a stack
based virtual machine.

Getting started:
  sxp run file.sxp             Run a source file
  sxp run -e '(+ 1 2)' -p      Evaluate an expression and print its value
  sxp disasm -e '(fn [x] x)'   Show the bytecode compiled for a form
  sxp expand -e '(when x y)'   Show the macro expansion of a form
  sxp doc map                  Show documentation for a var
  sxp doc -n string            List the vars of a namespace`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sxp.yaml)")
	flags.String(keyColor, "auto", `Control colored output: "auto", "always", or "never".`)
	flags.String(keyLogLevel, "warning", "Runtime log level (panic, fatal, error, warning, info, debug, trace).")
	flags.Int(keyMaxStack, lisp.DefaultMaxStackSize, "Maximum operand stack slots per VM.")
	flags.Int(keyMaxFrames, lisp.DefaultMaxFrameDepth, "Maximum active call frames per VM.")
	flags.Bool(keyTrace, false, "Log every instruction executed by the VM.")
	for _, key := range []string{keyColor, keyLogLevel, keyMaxStack, keyMaxFrames, keyTrace} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}

	root.AddCommand(
		newRunCmd(v),
		newDisasmCmd(v),
		newExpandCmd(v),
		newDocCmd(v),
	)
	return root
}

// initConfig reads in config file and ENV variables if set.
func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix("sxp")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v.ReadInConfig()
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(home)
	v.SetConfigName(".sxp")
	v.SetConfigType("yaml")
	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

// newLogger returns the runtime logger configured by v.
func newLogger(v *viper.Viper, cmd *cobra.Command) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	level, err := logrus.ParseLevel(v.GetString(keyLogLevel))
	if err != nil {
		return nil, err
	}
	if v.GetBool(keyTrace) {
		level = logrus.TraceLevel
	}
	logger.SetLevel(level)
	return logger, nil
}

// newEnv returns an environment with the standard library loaded and the
// runtime limits configured by v.
func newEnv(v *viper.Viper, cmd *cobra.Command, opts ...lisp.Config) (*compiler.Env, error) {
	logger, err := newLogger(v, cmd)
	if err != nil {
		return nil, err
	}
	opts = append([]lisp.Config{
		lisp.WithStdout(cmd.OutOrStdout()),
		lisp.WithStderr(cmd.ErrOrStderr()),
		lisp.WithLogger(logger),
		lisp.WithMaxStackSize(v.GetInt(keyMaxStack)),
		lisp.WithMaxFrameDepth(v.GetInt(keyMaxFrames)),
	}, opts...)
	return lisplib.NewEnv(opts...)
}
