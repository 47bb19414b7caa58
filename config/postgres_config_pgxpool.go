package config

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// A run issues its statements one after another, so a handful of connections is plenty.
const (
	sanitizerMaxConnections  = 4
	sanitizerMaxConnLifetime = 30 * time.Minute
	sanitizerMaxConnIdleTime = time.Minute
	sanitizerConnectTimeout  = 5 * time.Second
)

// PostgresPGXPoolConfig parses the DSN into a pgxpool.Config sized for a single sanitizer run.
// Settings given as DSN parameters (pool_max_conns etc.) are overridden.
func PostgresPGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = sanitizerMaxConnections
	cfg.MinConns = 0
	cfg.MaxConnLifetime = sanitizerMaxConnLifetime
	cfg.MaxConnIdleTime = sanitizerMaxConnIdleTime
	cfg.ConnConfig.ConnectTimeout = sanitizerConnectTimeout

	return cfg, nil
}
