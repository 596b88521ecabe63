// Package sqlite implements a single monthly shard backed by SQLite.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// dockerEnvPath is the sentinel file checked to detect container filesystems,
// where WAL's shared-memory files misbehave on some bind mounts. Overridden
// in tests.
var dockerEnvPath = "/.dockerenv"

// Options configure how a shard file is opened.
type Options struct {
	// JournalMode forces a specific journal mode. Empty means auto-detect:
	// DELETE inside a container, WAL otherwise.
	JournalMode string
	// BusyTimeoutMS is the SQLite busy timeout applied via the DSN.
	BusyTimeoutMS int
	Logger        *zap.Logger
}

// Shard is one open monthly database file.
type Shard struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens (creating if needed) the shard at path and initializes its schema.
func Open(path string, opts Options) (*Shard, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := opts.BusyTimeoutMS
	if timeout <= 0 {
		timeout = 5000
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_foreign_keys=ON", path, timeout)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	mode := journalMode(opts.JournalMode)
	if err := applyJournalMode(db, mode, logger); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Shard{db: db, path: path, logger: logger}, nil
}

// journalMode picks the mode to request: an explicit override wins, container
// filesystems get DELETE, everything else gets WAL.
func journalMode(override string) string {
	if override != "" {
		return strings.ToUpper(override)
	}
	if _, err := os.Stat(dockerEnvPath); err == nil {
		return "DELETE"
	}
	return "WAL"
}

// applyJournalMode sets the journal mode and verifies SQLite actually took it.
// A WAL request that cannot be honored (read-only volume, unsupported vfs)
// falls back to DELETE instead of failing the open.
func applyJournalMode(db *sql.DB, mode string, logger *zap.Logger) error {
	var got string
	err := db.QueryRow(fmt.Sprintf("PRAGMA journal_mode=%s", mode)).Scan(&got)
	if err == nil && strings.EqualFold(got, mode) {
		return nil
	}
	if err != nil {
		logger.Warn("failed to set journal mode, falling back to DELETE",
			zap.String("requested", mode),
			zap.Error(err))
	} else {
		logger.Warn("journal mode not honored, falling back to DELETE",
			zap.String("requested", mode),
			zap.String("got", got))
	}
	if err := db.QueryRow("PRAGMA journal_mode=DELETE").Scan(&got); err != nil {
		return fmt.Errorf("failed to fall back to DELETE journal mode: %w", err)
	}
	return nil
}

// Path returns the shard's database file path.
func (s *Shard) Path() string {
	return s.path
}

// DB exposes the underlying handle for collaborators that run their own
// statements against this shard.
func (s *Shard) DB() *sql.DB {
	return s.db
}

// Close closes the shard's database handle.
func (s *Shard) Close() error {
	return s.db.Close()
}
