package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dropsense/internal/helper"

	"github.com/spf13/cobra"
)

// newHelperCmd runs the helper side of the protocol on stdin and stdout
func newHelperCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "helper",
		Short: "Run the detection helper (spawned by the host)",
		Long: `Run the detection helper. It reads gesture commands from stdin and writes
protocol events to stdout, one JSON object per line. Diagnostics go to stderr.`,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return helper.Run(ctx, os.Stdin, os.Stdout, cfg)
		},
	}
}
