package warehouse

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicelens/backend/internal/observability"
)

// Postgres is the pgx-backed Gateway. The warehouse is treated as an opaque
// SQL-speaking analytical engine; this type only moves rows.
type Postgres struct {
	Pool    *pgxpool.Pool
	Timeout time.Duration
}

func NewPostgres(ctx context.Context, databaseURL string, timeout time.Duration) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Postgres{Pool: pool, Timeout: timeout}, nil
}

func (p *Postgres) Close() {
	p.Pool.Close()
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

func (p *Postgres) Query(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	start := time.Now()
	rows, err := p.Pool.Query(ctx, sql, args...)
	if err != nil {
		observability.ObserveQuery("error", time.Since(start))
		return nil, &ConnectivityError{Err: err}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	rs := &ResultSet{Columns: make([]string, len(fields))}
	for i, f := range fields {
		rs.Columns[i] = string(f.Name)
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			observability.ObserveQuery("error", time.Since(start))
			return nil, &ConnectivityError{Err: err}
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		observability.ObserveQuery("error", time.Since(start))
		return nil, &ConnectivityError{Err: err}
	}

	observability.ObserveQuery("ok", time.Since(start))
	return rs, nil
}
