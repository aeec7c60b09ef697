// Package settings stores configuration records such as the mockup frame URL.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// MockupURLKey holds the URL of the optional overlay frame.
const MockupURLKey = "instagram_mockup_url"

// ErrNotFound is returned by Get for keys that were never set.
var ErrNotFound = errors.New("settings: not found")

// Store is a string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

const createTableStmt = `CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// Open returns the store for driver: "memory" (default), "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	fields := logrus.Fields{"settingsDriver": driver}

	var (
		store Store
		err   error
	)
	switch driver {
	case "sqlite":
		if dsn == "" {
			dsn = "instapost.db"
		}
		fields["dataSourceName"] = dsn
		store, err = OpenSQLite(ctx, dsn)
	case "postgres":
		if dsn == "" {
			return nil, errors.New("settings: DATABASE_URL must be set for postgres")
		}
		store, err = OpenPostgres(ctx, dsn)
	default:
		fields["settingsDriver"] = "in-memory"
		store = NewMemory()
	}
	if err != nil {
		return nil, fmt.Errorf("open %s settings: %w", driver, err)
	}

	logrus.WithFields(fields).Info("Use settings store")
	return store, nil
}

// Lookup returns the value for key, or def when it is not set.
func Lookup(ctx context.Context, s Store, key, def string) (string, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return v, err
}
