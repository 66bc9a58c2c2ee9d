package sqliteutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func isRemote(path string) bool {
	return strings.HasPrefix(path, "libsql://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "wss://") ||
		strings.HasPrefix(path, "ws://")
}

// OpenDB opens a local sqlite file (or `:memory:`) or a remote libsql
// database and makes sure `schema` has been applied to it.
func OpenDB(schema, path string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch {
	case isRemote(path):
		db, err = sql.Open("libsql", path)
	case path == ":memory:":
		db, err = sql.Open("sqlite", path)
		// every new connection to :memory: would be a different database
		if err == nil {
			db.SetMaxOpenConns(1)
		}
	default:
		err = os.MkdirAll(filepath.Dir(path), 0700)
		if err != nil {
			return nil, err
		}
		db, err = sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	}
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
