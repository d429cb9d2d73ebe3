package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ruteri/lawsign-backend/interfaces"
)

// Open creates a store from a DSN. The scheme selects the backend:
// sqlite:// (or file:) for SQLiteStore, postgres:// or postgresql:// for PostgresStore.
func Open(ctx context.Context, dsn string, log *slog.Logger) (interfaces.Store, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "sqlite", "sqlite3":
		path := u.Path
		if u.Host != "" {
			path = u.Host + "/" + strings.TrimPrefix(path, "/")
		}
		if path == "" {
			return nil, fmt.Errorf("empty path in sqlite DSN: %s", dsn)
		}
		return OpenSQLite(ctx, SQLiteConfig{Path: path, Logger: log})
	case "file":
		return OpenSQLite(ctx, SQLiteConfig{Path: u.Path, Logger: log})
	case "postgres", "postgresql":
		return OpenPostgres(ctx, dsn, log)
	default:
		return nil, fmt.Errorf("unsupported database scheme: %s", u.Scheme)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", interfaces.ErrStorage, op, err)
}

func notFound(what string, id any) error {
	return fmt.Errorf("%w: %s %v", interfaces.ErrNotFound, what, id)
}

func unixNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
