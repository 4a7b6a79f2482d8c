package postgres

import (
	"context"

	"github.com/caretaker-tools/caretaker/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Client wraps a pgx connection pool for the application database.
type Client struct {
	pool *pgxpool.Pool
}

// Connect creates a connection pool from the database config and verifies
// connectivity with a ping.
//
// Example:
//
//	client, err := postgres.Connect(ctx, &cfg.Database)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
func Connect(ctx context.Context, cfg *config.Database) (*Client, error) {
	pool, err := pgxpool.New(ctx, ConnectionURI(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrapf(err, "failed to connect to PostgreSQL at %s:%d", cfg.Host, cfg.Port)
	}

	return &Client{pool: pool}, nil
}

// Close releases all pool connections.
func (c *Client) Close() {
	c.pool.Close()
}

// Pool exposes the underlying pgxpool.Pool for components that run their
// own SQL, such as the migrator.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}
