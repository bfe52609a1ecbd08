// Package persistence opens the store selected by PERSISTENCE_BACKEND.
package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/langcoach/internal/config"
	"github.com/nikhilbhutani/langcoach/internal/database"
	"github.com/nikhilbhutani/langcoach/internal/store"
	"github.com/nikhilbhutani/langcoach/internal/supabase"
)

type Backend struct {
	Store store.Store
	// Pool is nil for the supabase backend.
	Pool *pgxpool.Pool
}

// Open connects to the configured backend. For postgres, pending migrations
// are applied when migrate is true.
func Open(ctx context.Context, cfg *config.Config, migrate bool) (*Backend, error) {
	switch cfg.Persistence.Backend {
	case "postgres":
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := database.RunMigrations(ctx, pool, database.Source(cfg.Database.MigrationsPath)); err != nil {
				pool.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return &Backend{Store: store.NewPostgresStore(pool), Pool: pool}, nil

	case "supabase":
		c := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		if err := c.Ping(ctx); err != nil {
			slog.Warn("supabase unreachable at startup", "error", err)
		}
		return &Backend{Store: c}, nil

	default:
		return nil, fmt.Errorf("unknown PERSISTENCE_BACKEND %q", cfg.Persistence.Backend)
	}
}

func (b *Backend) Close() {
	if b.Pool != nil {
		b.Pool.Close()
	}
}
