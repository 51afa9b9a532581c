package factory

import (
	"fmt"
	"io"
	"os"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/adapters/filter"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/config"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/ports"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/utils"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/whitelist"
	"go.uber.org/zap"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	classifier    ports.Classifier
	history       ports.HistoryRecorder
	textProcessor *utils.TextProcessor
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(
	cfg *config.Config,
	logger *zap.Logger,
	classifier ports.Classifier,
	history ports.HistoryRecorder,
	textProcessor *utils.TextProcessor,
) *FilterFactory {
	return &FilterFactory{
		cfg:           cfg,
		logger:        logger,
		classifier:    classifier,
		history:       history,
		textProcessor: textProcessor,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterType := f.cfg.GetString("filter.type")

	switch filterType {
	case "postfix":
		smtpCfg := f.cfg.GetSMTP()
		return filter.NewPostfixFilter(
			f.classifier,
			f.history,
			whitelist.NewChecker(smtpCfg.WhitelistedDomains, f.logger),
			f.textProcessor,
			f.logger,
			smtpCfg,
		), nil
	case "cli":
		return f.CreateCliFilter(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}

// CreateCliFilter creates a CLI filter reporting to out
func (f *FilterFactory) CreateCliFilter(out io.Writer) *filter.CliFilter {
	return filter.NewCliFilter(
		f.classifier,
		f.textProcessor,
		f.logger,
		out,
		f.cfg.GetInt("cli.max_message_bytes"),
		f.cfg.GetBool("cli.verbose"),
	)
}
