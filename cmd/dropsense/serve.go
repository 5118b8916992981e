package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dropsense/internal/bridge"
	"dropsense/internal/log"
	"dropsense/internal/server"

	"github.com/spf13/cobra"
)

// newServeCmd exposes the host API over HTTP
func newServeCmd() *cobra.Command {
	var (
		addr  string
		start bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the detection API over HTTP and websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Server.Address
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			host := bridge.NewHost(bridge.New(cfg))
			defer host.Close()

			if start {
				if res := host.StartDetection(ctx); !res.Success {
					log.Warnf("Detection not started: %s", res.Error)
				}
			}

			srv := server.New(addr, host)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&start, "start", false, "start detection immediately")

	return cmd
}
