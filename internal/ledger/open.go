package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Backend names accepted by Open.
const (
	BackendMultichain = "multichain"
	BackendPostgres   = "postgres"
	BackendMemory     = "memory"
)

// Config selects and parameterises a ledger backend. It is built once at
// startup from the process configuration; the CLI and the server share this
// wiring so the two adapters cannot drift.
type Config struct {
	Backend     string // multichain, postgres, or memory
	Multichain  MultichainConfig
	DatabaseURL string // postgres backend only
}

// Open constructs the configured ledger client. The returned cleanup
// releases backend resources (the pgx pool); it is a no-op for the other
// backends.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Client, func(), error) {
	switch cfg.Backend {
	case BackendMultichain:
		return NewMultichain(cfg.Multichain), func() {}, nil

	case BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		return NewPostgres(pool, logger), pool.Close, nil

	case BackendMemory:
		return NewMemory(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}
