package factory

import (
	"context"
	"fmt"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/adapters/artifact"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/config"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"go.uber.org/zap"
)

// ArtifactFactory loads the vectorizer and model named in the configuration
type ArtifactFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	loader *artifact.Loader
}

// NewArtifactFactory creates a new artifact factory
func NewArtifactFactory(cfg *config.Config, logger *zap.Logger) *ArtifactFactory {
	return &ArtifactFactory{
		cfg:    cfg,
		logger: logger,
		loader: artifact.NewLoader(cfg.GetArtifacts().S3Region, logger),
	}
}

// CreateVectorizer loads the vectorizer artifact
func (f *ArtifactFactory) CreateVectorizer() (core.Vectorizer, error) {
	artifacts := f.cfg.GetArtifacts()
	v, err := f.loader.LoadVectorizer(context.Background(), artifacts.VectorizerPath, artifacts.VectorizerSHA256)
	if err != nil {
		return nil, fmt.Errorf("failed to load vectorizer: %w", err)
	}
	f.logger.Info("Vectorizer ready",
		zap.String("kind", v.Kind()),
		zap.Int("dimension", v.Dimension()))
	return v, nil
}

// CreateModel loads the classifier artifact
func (f *ArtifactFactory) CreateModel() (core.Model, error) {
	artifacts := f.cfg.GetArtifacts()
	m, err := f.loader.LoadModel(context.Background(), artifacts.ModelPath, artifacts.ModelSHA256)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	f.logger.Info("Model ready",
		zap.String("kind", m.Kind()),
		zap.Int("features", m.Features()))
	return m, nil
}
