package factory

import (
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/textnorm"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/utils"
	"go.uber.org/zap"
)

// TextProcessorFactory creates the text preparation and normalization stages
type TextProcessorFactory struct {
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		logger: logger,
	}
}

// CreateTextProcessor creates a new TextProcessor
func (f *TextProcessorFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}

// CreateNormalizer creates the message normalizer used before vectorizing
func (f *TextProcessorFactory) CreateNormalizer() core.TextNormalizer {
	return textnorm.New()
}
