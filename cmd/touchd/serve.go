// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"touchio.org/server"
)

func newServeCmd(e *env) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recognized gestures over websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := e.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(cfg, e.log).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from configuration)")
	return cmd
}
