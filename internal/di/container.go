package di

import (
	"net/http"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/adapters/web"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/config"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/factory"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/logging"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/ports"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	if err := provideServer(container); err != nil {
		return nil, err
	}
	return container, nil
}

// BuildContainerWithConfig creates a server container around an existing configuration
func BuildContainerWithConfig(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}

	if err := provideServer(container); err != nil {
		return nil, err
	}
	return container, nil
}

func provideServer(container *dig.Container) error {
	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return err
	}

	if err := provideClassifier(container); err != nil {
		return err
	}

	// Register history
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.HistoryFactory) *core.HistoryService {
		return f.CreateHistoryService()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(s *core.HistoryService) ports.History {
		return s
	}); err != nil {
		return err
	}
	if err := container.Provide(func(s *core.HistoryService) ports.HistoryRecorder {
		return s
	}); err != nil {
		return err
	}

	// Register email filter
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return err
	}

	// Register web handler and router
	if err := container.Provide(func(
		classifier ports.Classifier,
		history ports.History,
		textProcessor *utils.TextProcessor,
		logger *zap.Logger,
		cfg *config.Config,
	) (*web.Handler, error) {
		return web.NewHandler(classifier, history, textProcessor, logger, cfg.GetServer().MaxMessageBytes)
	}); err != nil {
		return err
	}
	return container.Provide(func(h *web.Handler, logger *zap.Logger) http.Handler {
		return web.NewRouter(h, logger)
	})
}

// provideClassifier registers the text stages, the artifacts and the
// classifier service. It expects a config and a logger.
func provideClassifier(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewArtifactFactory); err != nil {
		return err
	}

	// Register text processor and normalizer
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.TextProcessorFactory) core.TextNormalizer {
		return f.CreateNormalizer()
	}); err != nil {
		return err
	}

	// Register artifacts
	if err := container.Provide(func(f *factory.ArtifactFactory) (core.Vectorizer, error) {
		return f.CreateVectorizer()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ArtifactFactory) (core.Model, error) {
		return f.CreateModel()
	}); err != nil {
		return err
	}

	// Register classifier service
	if err := container.Provide(core.NewSpamClassifierService); err != nil {
		return err
	}
	return container.Provide(func(s *core.SpamClassifierService) ports.Classifier {
		return s
	})
}
