package history

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"go.uber.org/zap"
)

// dialect holds what differs between the SQL backends.
type dialect struct {
	name   string
	driver string
	schema string
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
}

// SQLStore is a database/sql implementation of core.HistoryRepository shared
// by the Postgres, MySQL and SQLite backends. Failures are logged and reported
// as false; they never propagate as errors.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

func openSQLStore(d dialect, dsn string, connectTimeout time.Duration, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.name, err)
	}

	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.name, err)
	}

	store := &SQLStore{
		db:      db,
		dialect: d,
		logger:  logger.With(zap.String("backend", d.name)),
	}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.dialect.schema)
	return err
}

// rebind rewrites ? placeholders for dialects that number them.
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Insert stores a new record
func (s *SQLStore) Insert(ctx context.Context, message, prediction string) bool {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO messages (message, prediction)
		VALUES (?, ?)
	`), message, prediction)
	if err != nil {
		s.logger.Error("Failed to insert history record", zap.Error(err))
		return false
	}
	return true
}

// Recent returns at most limit records, newest first
func (s *SQLStore) Recent(ctx context.Context, limit int) ([]core.HistoryRecord, bool) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, message, prediction, created_at
		FROM messages
		ORDER BY id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		s.logger.Error("Failed to query history", zap.Error(err))
		return []core.HistoryRecord{}, false
	}
	defer rows.Close()

	records := make([]core.HistoryRecord, 0, limit)
	for rows.Next() {
		var rec core.HistoryRecord
		if err := rows.Scan(&rec.ID, &rec.Message, &rec.Prediction, &rec.CreatedAt); err != nil {
			s.logger.Error("Failed to scan history record", zap.Error(err))
			return []core.HistoryRecord{}, false
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("Failed to read history", zap.Error(err))
		return []core.HistoryRecord{}, false
	}

	return records, true
}

// Delete removes the record with id, false when no such record exists
func (s *SQLStore) Delete(ctx context.Context, id int64) bool {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM messages
		WHERE id = ?
	`), id)
	if err != nil {
		s.logger.Error("Failed to delete history record", zap.Error(err), zap.Int64("id", id))
		return false
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during delete", zap.Error(err))
		return false
	}
	return rowsAffected > 0
}

// Backend returns the dialect name
func (s *SQLStore) Backend() string {
	return s.dialect.name
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s database: %w", s.dialect.name, err)
	}
	return nil
}
