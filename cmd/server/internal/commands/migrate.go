package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/stockroom/internal/logger"
	postgresstore "github.com/wolfeidau/stockroom/internal/store/postgres"
)

type MigrateCmd struct {
	Up            MigrateUpCmd     `cmd:"" help:"Apply pending database migrations"`
	PruneSessions PruneSessionsCmd `cmd:"" help:"Delete expired sessions"`
}

type MigrateUpCmd struct {
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *MigrateUpCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	pool, err := c.PostgresStore.connect(ctx, false)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgresstore.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Migrations applied")
	return nil
}

type PruneSessionsCmd struct {
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *PruneSessionsCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	pool, err := c.PostgresStore.connect(ctx, false)
	if err != nil {
		return err
	}
	defer pool.Close()

	count, err := postgresstore.NewSessionStore(pool).DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to prune sessions: %w", err)
	}

	log.Info().Int("deleted", count).Msg("Expired sessions pruned")
	return nil
}
