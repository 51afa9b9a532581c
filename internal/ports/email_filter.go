package ports

import (
	"context"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
)

// Classifier labels a single message
type Classifier interface {
	// Classify normalizes, vectorizes and predicts a label for message
	Classify(ctx context.Context, message string) (*core.ClassificationResult, error)
}

// HistoryRecorder stores predictions made outside the web front end
type HistoryRecorder interface {
	// Record stores a prediction and reports which backend kept it
	Record(ctx context.Context, message, prediction string) core.HistorySource
}

// EmailFilter defines the interface for email filtering front ends
type EmailFilter interface {
	// ProcessEmail classifies an email and returns the result
	ProcessEmail(ctx context.Context, email *core.Email) (*core.ClassificationResult, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
