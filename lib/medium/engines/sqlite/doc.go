// Package sqlite implements a persistent medium.IMedium stored in a single SQLite file,
// the server-side equivalent of a browser's localStorage. Browsers keep localStorage in a
// two-column SQLite table; this package uses the same layout:
//
//	CREATE TABLE ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value TEXT NOT NULL)
//
// The pure Go driver github.com/glebarez/go-sqlite is used through database/sql, so the
// package needs no cgo. A single connection is kept open which makes ":memory:" databases
// usable in tests and keeps writes ordered.
//
// Usage Example:
//
//	m, err := sqlite.NewSQLiteMedium(sqlite.DefaultOptions("maxstore.db"))
//	if err != nil {
//		return err
//	}
//	defer m.Close()
//
//	s, err := store.New(m, nil)
package sqlite
