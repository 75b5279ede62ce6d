package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Postgres persists ledger entries to a PostgreSQL table. It implements
// Client and is the durable alternative when no Multichain node is deployed.
//
// Append order is materialised by the bigserial seq column; ListForKey and
// ListAll both order by it, so the scan-order guarantee the expiration index
// relies on holds.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres creates a Postgres ledger client backed by the given pool.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logger}
}

// Append implements Client.
func (p *Postgres) Append(ctx context.Context, stream, key string, payload []byte) (string, error) {
	id := uuid.New()
	if _, err := p.pool.Exec(ctx,
		`INSERT INTO ledger_entries (id, stream, key, payload) VALUES ($1, $2, $3, $4)`,
		id, stream, key, payload,
	); err != nil {
		return "", &TransportError{Op: "append", Err: err}
	}

	p.logger.Debug("ledger entry appended",
		zap.String("stream", stream),
		zap.String("key", key),
		zap.String("id", id.String()),
	)
	return id.String(), nil
}

// ListForKey implements Client.
func (p *Postgres) ListForKey(ctx context.Context, stream, key string) ([][]byte, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT payload FROM ledger_entries WHERE stream = $1 AND key = $2 ORDER BY seq ASC`,
		stream, key,
	)
	if err != nil {
		return nil, &TransportError{Op: "listforkey", Err: err}
	}
	defer rows.Close()

	var payloads [][]byte
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, &TransportError{Op: "listforkey", Err: err}
		}
		payloads = append(payloads, payload)
	}
	if err := rows.Err(); err != nil {
		return nil, &TransportError{Op: "listforkey", Err: err}
	}
	return payloads, nil
}

// ListAll implements Client.
func (p *Postgres) ListAll(ctx context.Context, stream string) ([]Item, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT key, payload FROM ledger_entries WHERE stream = $1 ORDER BY seq ASC`,
		stream,
	)
	if err != nil {
		return nil, &TransportError{Op: "listall", Err: err}
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Key, &it.Payload); err != nil {
			return nil, &TransportError{Op: "listall", Err: err}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, &TransportError{Op: "listall", Err: err}
	}
	return items, nil
}
