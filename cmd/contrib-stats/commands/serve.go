package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oss-pulse/contrib-stats/internal/server"
)

// NewServeCommand creates the command that serves result documents, health,
// and metrics over HTTP, rebuilding results on an interval.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve documents, health, and metrics over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			stores, closeStores, err := a.stores()
			if err != nil {
				return err
			}
			defer closeStores()

			// Serve from the configured backend: the last store is Redis
			// when enabled, the file store otherwise.
			primary := stores[len(stores)-1]

			refresh := func(ctx context.Context) error {
				return buildAll(ctx, a, stores)
			}

			srv := server.New(server.Config{
				Listen:       a.cfg.Server.ListenAddr,
				Refresh:      a.cfg.Server.RefreshInterval,
				MaxResultAge: 3 * a.cfg.Server.RefreshInterval,
				Prefix:       a.cfg.Project.Prefix,
			}, a.logger, primary, refresh)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return srv.Run(ctx)
		},
	}
}
