package history

import (
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var postgresDialect = dialect{
	name:   BackendPostgres,
	driver: "postgres",
	schema: `
		CREATE TABLE IF NOT EXISTS messages (
			id SERIAL PRIMARY KEY,
			message TEXT NOT NULL,
			prediction VARCHAR(20) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`,
	numbered: true,
}

// NewPostgresStore opens a Postgres history database. dsn may be a
// postgres:// URL or a key=value connection string.
func NewPostgresStore(dsn string, connectTimeout time.Duration, logger *zap.Logger) (*SQLStore, error) {
	return openSQLStore(postgresDialect, dsn, connectTimeout, logger)
}
