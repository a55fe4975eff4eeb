package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cybersafe-india/pagetrans/server"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the translation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, stack, err := a.buildStack()
			if err != nil {
				return err
			}
			defer stack.Close()

			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(stack.Engine, server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes))
			return srv.ListenAndServe(ctx, cfg.Server.Addr,
				time.Duration(cfg.Server.ReadTimeoutSeconds)*time.Second,
				time.Duration(cfg.Server.WriteTimeoutSeconds)*time.Second,
			)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")

	return cmd
}

// commandContext returns cmd's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
