// Package history implements the prediction history repositories: a capped
// in-memory store and SQL stores for Postgres, MySQL and SQLite.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of core.HistoryRepository. It
// keeps at most limit records, newest first; inserting beyond the limit drops
// the oldest record.
type MemoryStore struct {
	records []core.HistoryRecord
	nextID  int64
	limit   int
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory history store
func NewMemoryStore(limit int, logger *zap.Logger) *MemoryStore {
	if limit <= 0 {
		limit = 20
	}
	return &MemoryStore{
		records: make([]core.HistoryRecord, 0, limit),
		limit:   limit,
		logger:  logger,
	}
}

// Insert stores a record with the next id
func (s *MemoryStore) Insert(_ context.Context, message, prediction string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec := core.HistoryRecord{
		ID:         s.nextID,
		Message:    message,
		Prediction: prediction,
		CreatedAt:  time.Now().UTC(),
	}

	s.records = append(s.records, core.HistoryRecord{})
	copy(s.records[1:], s.records)
	s.records[0] = rec

	if len(s.records) > s.limit {
		dropped := len(s.records) - s.limit
		s.records = s.records[:s.limit]
		s.logger.Debug("Dropped oldest in-memory history records", zap.Int("dropped", dropped))
	}
	return true
}

// Recent returns at most limit records, newest first. A limit of zero or less
// returns everything held.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]core.HistoryRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]core.HistoryRecord, limit)
	copy(out, s.records[:limit])
	return out, true
}

// Delete removes the record with id
func (s *MemoryStore) Delete(_ context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.records {
		if rec.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of records held
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
