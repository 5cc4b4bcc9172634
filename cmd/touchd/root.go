// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"touchio.org/config"
	tlog "touchio.org/internal/log"
)

const version = "dev"

// env is the state shared by the subcommands once the root
// command loaded the configuration.
type env struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	e := new(env)
	root := &cobra.Command{
		Use:   "touchd",
		Short: "Touch gesture recognition tool",
		Long:  `Replays scripted touch interactions through the tap recognizers and serves recognized gestures over websockets`,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "configuration file (default "+config.DefaultFileName+" if present)")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "log level: trace, debug, info, warn or error")
	root.PersistentFlags().StringVar(&e.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newReplayCmd(e),
		newRenderCmd(e),
		newServeCmd(e),
		newVersionCmd(),
	)
	return root
}

func (e *env) init(cmd *cobra.Command) error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	if e.logLevel != "" {
		cfg.Log.Level = e.logLevel
	}
	if e.logFormat != "" {
		cfg.Log.Format = e.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	l, err := tlog.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	e.cfg, e.log = cfg, l
	e.log.WithField("source", cfg.Source).Debug("configuration loaded")
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the touchd version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "touchd "+version)
		},
	}
}
