package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/adapters/history"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/config"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"go.uber.org/zap"
)

// HistoryFactory creates the history service based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryService creates the history service. A durable store that
// cannot be opened is logged and replaced by the in-memory store.
func (f *HistoryFactory) CreateHistoryService() *core.HistoryService {
	limit := f.cfg.GetHistoryLimit()
	memory := history.NewMemoryStore(limit, f.logger)

	primary, err := f.CreateHistoryRepository()
	if err != nil {
		f.logger.Error("Durable history unavailable, using in-memory history", zap.Error(err))
		return core.NewHistoryService(nil, memory, limit, f.logger)
	}
	if primary == nil {
		f.logger.Info("No database configured, using in-memory history", zap.Int("limit", limit))
	}
	return core.NewHistoryService(primary, memory, limit, f.logger)
}

// CreateHistoryRepository opens the durable repository selected by
// database.url, or returns nil when none is configured.
func (f *HistoryFactory) CreateHistoryRepository() (core.HistoryRepository, error) {
	dbCfg := f.cfg.GetDatabase()

	backend, dsn, err := history.ParseDatabaseURL(dbCfg.URL)
	if err != nil {
		return nil, err
	}

	var store *history.SQLStore
	switch backend {
	case history.BackendMemory:
		return nil, nil
	case history.BackendSQLite:
		if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
			}
		}
		store, err = history.NewSQLiteStore(dsn, dbCfg.ConnectTimeout, f.logger)
	case history.BackendMySQL:
		store, err = history.NewMySQLStore(dsn, dbCfg.ConnectTimeout, f.logger)
	case history.BackendPostgres:
		store, err = history.NewPostgresStore(dsn, dbCfg.ConnectTimeout, f.logger)
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", backend)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("Using durable history", zap.String("backend", store.Backend()))
	return store, nil
}
