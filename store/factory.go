package store

import (
	"fmt"
	"log/slog"
	"strings"

	"stockctl/domain"
)

// Backend kinds understood by NewStore.
const (
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindMemory   = "memory"
	KindFile     = "file"
)

// Options selects and configures a backend.
type Options struct {
	Kind string
	// Path is the sqlite database file.
	Path string
	// File is the JSON snapshot used by the file backend.
	File   string
	DSN    string
	Debug  bool
	Logger *slog.Logger
}

// NewStore constructs a domain.InventoryStore by kind: "sqlite" (the default),
// "postgres", "memory" or "file".
func NewStore(opts Options) (domain.InventoryStore, error) {
	sqlOpts := SQLOptions{Debug: opts.Debug, Logger: opts.Logger}
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindSQLite, "sqlite3":
		if opts.Path == "" {
			return nil, fmt.Errorf("database path required for sqlite store")
		}
		return OpenSQLite(opts.Path, sqlOpts)
	case KindPostgres, "pg":
		if opts.DSN == "" {
			return nil, fmt.Errorf("dsn required for postgres store")
		}
		return OpenPostgres(opts.DSN, sqlOpts)
	case KindMemory, "mem":
		return NewInMemoryStore(), nil
	case KindFile:
		if opts.File == "" {
			return nil, fmt.Errorf("file path required for file store")
		}
		return NewFileStore(opts.File)
	default:
		return nil, fmt.Errorf("unknown store kind: %s", opts.Kind)
	}
}
