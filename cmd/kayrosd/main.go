// Command kayrosd runs the server as a standalone daemon, grounded on the
// z5labs/bedrock App's buildCmd (app.go): a single cobra.Command, flags
// overriding a config file, and signal.NotifyContext driving graceful
// shutdown on interrupt.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/kayros-web/kayros"
	"github.com/kayros-web/kayros/config"
	"github.com/kayros-web/kayros/examples/taskmanager"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr       string
		configPath string
		demo       bool
	)

	cmd := &cobra.Command{
		Use:   "kayrosd",
		Short: "kayrosd runs the HTTP/1.1 server core",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			app := kayros.New().Tune(*cfg).SetLogger(log)

			if demo {
				if err := taskmanager.New().Register(app.Router()); err != nil {
					return err
				}
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			errCh := make(chan error, 1)
			go func() { errCh <- app.ListenAndServe(addr) }()

			select {
			case <-ctx.Done():
				log.Info("shutdown signal received")
				app.GracefulStop()
				return <-errCh
			case err := <-errCh:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().BoolVar(&demo, "demo", false, "register the built-in taskmanager demo resource")

	return cmd
}
