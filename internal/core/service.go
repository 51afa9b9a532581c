package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SpamClassifierService is the core service for spam classification
type SpamClassifierService struct {
	normalizer TextNormalizer
	vectorizer Vectorizer
	model      Model
	logger     *zap.Logger
}

// NewSpamClassifierService creates a new spam classifier service
func NewSpamClassifierService(
	normalizer TextNormalizer,
	vectorizer Vectorizer,
	model Model,
	logger *zap.Logger,
) *SpamClassifierService {
	if vectorizer.Dimension() != model.Features() {
		logger.Warn("Vectorizer and model dimensions differ, every prediction will fail",
			zap.Int("vectorizer_dimension", vectorizer.Dimension()),
			zap.Int("model_features", model.Features()))
	}

	return &SpamClassifierService{
		normalizer: normalizer,
		vectorizer: vectorizer,
		model:      model,
		logger:     logger,
	}
}

// Normalize exposes the normalization step on its own
func (s *SpamClassifierService) Normalize(message string) string {
	return s.normalizer.Normalize(message)
}

// Classify normalizes, vectorizes and predicts a label for message
func (s *SpamClassifierService) Classify(ctx context.Context, message string) (*ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processingID := uuid.NewString()
	normalized := s.normalizer.Normalize(message)

	features, err := s.vectorizer.Vectorize(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to vectorize message: %w", err)
	}

	if len(features) != s.model.Features() {
		return nil, fmt.Errorf("%w: vector has %d features, model expects %d",
			ErrDimensionMismatch, len(features), s.model.Features())
	}

	code, err := s.model.Predict(features)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}

	label := LabelFor(code)
	s.logger.Debug("Classified message",
		zap.String("processing_id", processingID),
		zap.String("normalized", normalized),
		zap.Int("code", code),
		zap.String("label", label))

	return &ClassificationResult{
		Message:          message,
		Normalized:       normalized,
		Code:             code,
		Label:            label,
		IsSpam:           code == SpamCode,
		ClassifiedAt:     time.Now(),
		ProcessingID:     processingID,
		VectorizerDigest: s.vectorizer.Digest(),
		ModelDigest:      s.model.Digest(),
	}, nil
}
