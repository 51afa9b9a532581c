package core

import (
	"time"
)

// Prediction labels
const (
	LabelSpam    = "Spam"
	LabelNotSpam = "Not Spam"
)

// SpamCode is the model output code that maps to LabelSpam.
const SpamCode = 1

// LabelFor maps a model output code to its display label.
func LabelFor(code int) string {
	if code == SpamCode {
		return LabelSpam
	}
	return LabelNotSpam
}

// Email represents an email message handed to a filter
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
	Headers map[string][]string
}

// ClassificationResult represents the result of classifying one message
type ClassificationResult struct {
	Message          string
	Normalized       string
	Code             int
	Label            string
	IsSpam           bool
	ClassifiedAt     time.Time
	ProcessingID     string
	VectorizerDigest string
	ModelDigest      string
}

// HistoryRecord is one stored prediction.
type HistoryRecord struct {
	ID         int64     `json:"id"`
	Message    string    `json:"message"`
	Prediction string    `json:"prediction"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistorySource names the backend that served a history operation.
type HistorySource string

const (
	SourceDatabase HistorySource = "database"
	SourceMemory   HistorySource = "memory"
)
