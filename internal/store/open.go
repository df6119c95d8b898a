package store

import (
	"context"
	"strings"
	"time"
)

// Open picks a backend from the URL: sqlite://PATH or file:PATH open a local
// SQLite database, anything else is handed to pgx.
func Open(ctx context.Context, databaseURL string, connectTimeout time.Duration) (DataStore, error) {
	var path string
	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path = strings.TrimPrefix(databaseURL, "sqlite://")
	case strings.HasPrefix(databaseURL, "file:"):
		path = strings.TrimPrefix(databaseURL, "file:")
	default:
		s, err := New(ctx, databaseURL, connectTimeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := NewSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return s, nil
}
