package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"dropsense/internal/bridge"
	"dropsense/internal/log"
	"dropsense/internal/protocol"

	"github.com/spf13/cobra"
)

// newHostCmd spawns the helper and prints what it detects
func newHostCmd() *cobra.Command {
	var forwardStdin bool

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Start detection and print detected files",
		Long: `Spawn the helper process and print every file it detects until interrupted.
With --stdin, gesture commands read from stdin are forwarded to the helper.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			host := bridge.NewHost(bridge.New(cfg))
			defer host.Close()

			events, cancel := host.Subscribe()
			defer cancel()

			if res := host.StartDetection(ctx); !res.Success {
				return fmt.Errorf("failed to start detection: %s", res.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), infoStyle.Render("Detection started. Press Ctrl+C to stop."))

			if forwardStdin {
				go forwardCommands(os.Stdin, host)
			}

			out := cmd.OutOrStdout()
			for {
				select {
				case <-ctx.Done():
					host.StopDetection()
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					switch e := ev.(type) {
					case protocol.FileDetected:
						fmt.Fprintln(out, renderResult(e.Result))
					case protocol.Exit:
						return fmt.Errorf("helper exited (code=%d signal=%s)", e.Code, e.Signal)
					}
				}
			}
		},
	}

	cmd.Flags().BoolVar(&forwardStdin, "stdin", false, "forward gesture commands from stdin to the helper")

	return cmd
}

// forwardCommands relays command lines from r until EOF
func forwardCommands(r io.Reader, host *bridge.Host) {
	lines := protocol.NewReader(r)
	for {
		line, err := lines.ReadLine()
		if err != nil {
			return
		}
		command, err := protocol.DecodeCommand(line)
		if err != nil {
			log.LogError(err, "skipping command")
			continue
		}
		if err := host.Send(command); err != nil {
			log.LogError(err, "failed to forward command")
		}
	}
}
