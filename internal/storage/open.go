package storage

import (
	"fmt"
	"strings"

	"github.com/antaqor/yuki/internal/storage/postgres"
	"github.com/antaqor/yuki/internal/storage/sqlite"
)

var (
	_ Provider = (*sqlite.Store)(nil)
	_ Provider = (*postgres.Store)(nil)
)

// IsPostgres reports whether target is a PostgreSQL connection string
func IsPostgres(target string) bool {
	return strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://")
}

// New picks the journal backend for target: a PostgreSQL connection string or
// a SQLite file path. Connection strings carrying a password are refused.
func New(target string) (Provider, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("journal target is empty")
	}
	if IsPostgres(target) {
		if _, err := postgres.ValidateConnString(target); err != nil {
			return nil, err
		}
		return postgres.New(target), nil
	}
	return sqlite.NewStore(target), nil
}

// Open creates the journal for target and migrates it
func Open(target string) (Provider, error) {
	p, err := New(target)
	if err != nil {
		return nil, err
	}
	if err := p.Init(); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}
