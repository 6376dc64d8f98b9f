package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Protocol-Lattice/agent-server/pkg/config"
	"github.com/Protocol-Lattice/agent-server/pkg/runtime"
	"github.com/Protocol-Lattice/agent-server/pkg/server"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if addr == "" {
				addr = cfg.Addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := log.Default()
			rt := runtime.New(runtime.WithSettings(cfg), runtime.WithLogger(logger))
			logger.Printf("default provider=%s ollama=%s timeout=%s", cfg.Provider, cfg.OllamaHost, cfg.RequestTimeout)

			return server.New(rt, logger, cfg.RequestTimeout).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default $AGENTD_ADDR or :8000)")
	return cmd
}
