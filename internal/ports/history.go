package ports

import (
	"context"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
)

// History is the prediction history as seen by the web front end
type History interface {
	HistoryRecorder

	// Recent returns up to limit records, newest first, and the backend that served them
	Recent(ctx context.Context, limit int) ([]core.HistoryRecord, core.HistorySource)

	// Delete removes a record by id, reporting whether one was removed
	Delete(ctx context.Context, id int64) bool

	// Limit is the number of records shown by default
	Limit() int
}
