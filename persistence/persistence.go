// Package persistence opens the Postgres connection and applies the embedded
// schema migrations.
package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/goliatone/go-errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	moments "github.com/momentkit/go-moments"
)

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

var ErrMissingDSN = errors.New("DATABASE_URL is not set", errors.CategoryBadInput).
	WithTextCode("DATABASE_URL_MISSING")

// Open connects to Postgres through the pgx driver and pings it within
// pingTimeout. Caller must Close the returned DB.
func Open(ctx context.Context, dsn string, pingTimeout time.Duration) (*bun.DB, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	sqldb, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "persistence: open database")
	}

	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := sqldb.PingContext(pctx); err != nil {
		_ = sqldb.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "persistence: ping database")
	}

	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// Migrate applies the embedded migrations in direction. Being already at the
// target version is not an error.
func Migrate(dsn, direction string, logger moments.Logger) error {
	if dsn == "" {
		return ErrMissingDSN
	}
	if direction != DirectionUp && direction != DirectionDown {
		return errors.New("direction must be up or down", errors.CategoryBadInput).
			WithMetadata(map[string]any{"direction": direction})
	}

	source, err := iofs.New(moments.GetMigrationsFS(), moments.MigrationsDir)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "persistence: migration source")
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "persistence: migrate")
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case DirectionUp:
		err = m.Up()
	case DirectionDown:
		err = m.Down()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("migrations already applied", "direction", direction)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "persistence: apply migrations").
			WithMetadata(map[string]any{"direction": direction})
	}

	version, dirty, _ := m.Version()
	logger.Info("migrations applied", "direction", direction, "version", version, "dirty", dirty)
	return nil
}
