package core

import (
	"context"

	"go.uber.org/zap"
)

// HistoryService records predictions in the durable repository and falls
// back to the in-memory repository whenever the durable one is absent or
// fails. primary may be nil.
type HistoryService struct {
	primary  HistoryRepository
	fallback HistoryRepository
	limit    int
	logger   *zap.Logger
}

// NewHistoryService creates a history service
func NewHistoryService(primary, fallback HistoryRepository, limit int, logger *zap.Logger) *HistoryService {
	if limit <= 0 {
		limit = 20
	}
	return &HistoryService{
		primary:  primary,
		fallback: fallback,
		limit:    limit,
		logger:   logger,
	}
}

// Limit is the number of records returned by Recent when no limit is given
func (s *HistoryService) Limit() int {
	return s.limit
}

// Durable reports whether a durable repository is configured
func (s *HistoryService) Durable() bool {
	return s.primary != nil
}

// Record stores a prediction and reports which backend kept it
func (s *HistoryService) Record(ctx context.Context, message, prediction string) HistorySource {
	if s.primary != nil {
		if s.primary.Insert(ctx, message, prediction) {
			return SourceDatabase
		}
		s.logger.Warn("Durable history unavailable, recording in memory")
	}

	s.fallback.Insert(ctx, message, prediction)
	return SourceMemory
}

// Recent returns up to limit records, newest first. A limit of zero or less,
// or above the configured limit, uses the configured limit.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]HistoryRecord, HistorySource) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	if s.primary != nil {
		if records, ok := s.primary.Recent(ctx, limit); ok {
			return records, SourceDatabase
		}
		s.logger.Warn("Durable history unavailable, reading from memory")
	}

	records, _ := s.fallback.Recent(ctx, limit)
	return records, SourceMemory
}

// Delete removes a record by id from the durable repository, or from memory
// when the durable repository does not have it.
func (s *HistoryService) Delete(ctx context.Context, id int64) bool {
	if s.primary != nil && s.primary.Delete(ctx, id) {
		return true
	}
	return s.fallback.Delete(ctx, id)
}

// Close closes both repositories
func (s *HistoryService) Close() error {
	var firstErr error
	if s.primary != nil {
		firstErr = s.primary.Close()
	}
	if err := s.fallback.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
