package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ValentinKolb/maxstore/lib/medium"
	_ "github.com/glebarez/go-sqlite"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("medium")

const (
	defaultBusyTimeoutMs = 5000
	createTableStmt      = `CREATE TABLE IF NOT EXISTS ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value TEXT NOT NULL)`
)

// Options configures the sqlite medium
type Options struct {
	// Path of the database file. ":memory:" opens a private in-memory database.
	Path string
	// WAL enables the write-ahead log journal mode.
	WAL bool
	// BusyTimeoutMs is how long a write waits for a lock held by another connection.
	BusyTimeoutMs int
	// QuotaBytes limits the summed length of all keys and values (0 = unlimited).
	QuotaBytes int
}

// DefaultOptions returns the default sqlite options for the given database file
func DefaultOptions(path string) *Options {
	return &Options{
		Path:          path,
		WAL:           true,
		BusyTimeoutMs: defaultBusyTimeoutMs,
	}
}

// sqliteImpl implements medium.IMedium on a single SQLite table
type sqliteImpl struct {
	db    *sql.DB
	path  string
	quota int

	// mu serializes writes so the quota check and the write happen atomically
	mu sync.Mutex
}

// NewSQLiteMedium opens (or creates) the database described by opts
func NewSQLiteMedium(opts *Options) (medium.IMedium, error) {
	if opts == nil || strings.TrimSpace(opts.Path) == "" {
		return nil, medium.NewError(medium.RetCUnavailable, "missing sqlite path")
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, medium.NewError(medium.RetCUnavailable, fmt.Sprintf("failed to open %s: %v", opts.Path, err))
	}

	// one connection keeps ":memory:" databases alive and writes ordered
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db, opts); err != nil {
		_ = db.Close()
		return nil, medium.NewError(medium.RetCUnavailable, fmt.Sprintf("failed to configure %s: %v", opts.Path, err))
	}

	if _, err := db.Exec(createTableStmt); err != nil {
		_ = db.Close()
		return nil, medium.NewError(medium.RetCUnavailable, fmt.Sprintf("failed to create table in %s: %v", opts.Path, err))
	}

	Logger.Infof("opened sqlite medium at %s", opts.Path)

	return &sqliteImpl{
		db:    db,
		path:  opts.Path,
		quota: opts.QuotaBytes,
	}, nil
}

// Factory returns a medium.Factory opening the database described by opts
func Factory(opts *Options) medium.Factory {
	return func() (medium.IMedium, error) {
		return NewSQLiteMedium(opts)
	}
}

// applyPragmas sets the journal mode and busy timeout of a fresh connection
func applyPragmas(db *sql.DB, opts *Options) error {
	if opts.WAL && opts.Path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return err
		}
	}
	if opts.BusyTimeoutMs > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", opts.BusyTimeoutMs)); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see medium.IMedium)
// --------------------------------------------------------------------------

func (s *sqliteImpl) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM ItemTable WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.wrap("get", err)
	}
	return value, true, nil
}

func (s *sqliteImpl) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quota > 0 {
		used, old, err := s.usage(key)
		if err != nil {
			return err
		}
		if used-old+int64(len(key)+len(value)) > int64(s.quota) {
			return medium.NewError(medium.RetCQuotaExceeded,
				fmt.Sprintf("setting %q would exceed the quota of %d bytes", key, s.quota))
		}
	}

	if _, err := s.db.Exec(`INSERT INTO ItemTable (key, value) VALUES (?, ?)`, key, value); err != nil {
		return s.wrap("set", err)
	}
	return nil
}

func (s *sqliteImpl) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM ItemTable WHERE key = ?`, key); err != nil {
		return s.wrap("remove", err)
	}
	return nil
}

func (s *sqliteImpl) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM ItemTable`); err != nil {
		return s.wrap("clear", err)
	}
	return nil
}

func (s *sqliteImpl) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM ItemTable`)
	if err != nil {
		return nil, s.wrap("keys", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, s.wrap("keys", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("keys", err)
	}
	return keys, nil
}

func (s *sqliteImpl) Close() error {
	Logger.Infof("closing sqlite medium at %s", s.path)
	return s.db.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// usage returns the bytes used by the whole table and by the row for key
func (s *sqliteImpl) usage(key string) (total int64, row int64, err error) {
	err = s.db.QueryRow(`
SELECT
  COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0),
  COALESCE(SUM(CASE WHEN key = ? THEN LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB)) ELSE 0 END), 0)
FROM ItemTable`, key).Scan(&total, &row)
	if err != nil {
		return 0, 0, s.wrap("usage", err)
	}
	return total, row, nil
}

// wrap converts a database error into a medium error
func (s *sqliteImpl) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return medium.NewError(medium.RetCUnavailable, fmt.Sprintf("sqlite %s: %v", op, err))
	}
	return medium.NewError(medium.RetCInternalError, fmt.Sprintf("sqlite %s: %v", op, err))
}
