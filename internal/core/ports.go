package core

import (
	"context"
)

// TextNormalizer turns raw text into the normalized token string
type TextNormalizer interface {
	Normalize(text string) string
}

// Vectorizer maps a normalized string to a fixed-length feature vector
type Vectorizer interface {
	// Vectorize returns a vector of length Dimension()
	Vectorize(text string) ([]float64, error)

	// Dimension is the vocabulary size the vectorizer was fitted with
	Dimension() int

	// Digest is the SHA-256 hex digest of the artifact
	Digest() string
}

// Model predicts an output code from a feature vector
type Model interface {
	// Predict returns the class code for features
	Predict(features []float64) (int, error)

	// Features is the vector length the model expects
	Features() int

	// Digest is the SHA-256 hex digest of the artifact
	Digest() string
}

// HistoryRepository stores past predictions. Implementations never panic on
// backend failures; they log and report false.
type HistoryRepository interface {
	// Insert stores a new record with a server-assigned id
	Insert(ctx context.Context, message, prediction string) bool

	// Recent returns at most limit records, newest first
	Recent(ctx context.Context, limit int) ([]HistoryRecord, bool)

	// Delete removes the record with id, false if it does not exist
	Delete(ctx context.Context, id int64) bool

	// Close releases the backend
	Close() error
}
