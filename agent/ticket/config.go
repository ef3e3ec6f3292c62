package ticket

import (
	"database/sql"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Config struct {
	DSN          string        `envconfig:"DSN" split_words:"true"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"10"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.DSN) != ""
}

// Open returns a Postgres-backed bun handle. The connection is lazy; the
// first query surfaces an unreachable server.
func Open(cfg Config) (*bun.DB, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(strings.TrimSpace(cfg.DSN)),
		pgdriver.WithTimeout(cfg.Timeout),
	)
	sqldb := sql.OpenDB(connector)
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return bun.NewDB(sqldb, pgdialect.New()), nil
}
