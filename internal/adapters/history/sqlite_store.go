package history

import (
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = dialect{
	name:   BackendSQLite,
	driver: "sqlite3",
	schema: `
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message TEXT NOT NULL,
			prediction VARCHAR(20) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`,
}

// NewSQLiteStore opens (creating if needed) a SQLite history database
func NewSQLiteStore(path string, connectTimeout time.Duration, logger *zap.Logger) (*SQLStore, error) {
	store, err := openSQLStore(sqliteDialect, path, connectTimeout, logger)
	if err != nil {
		return nil, err
	}
	// one writer at a time, also keeps :memory: databases on one connection
	store.db.SetMaxOpenConns(1)
	return store, nil
}
