package di

import (
	"flag"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/adapters/filter"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/config"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/factory"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/logging"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/ports"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Artifact flags
	VectorizerPath string
	ModelPath      string
	MaxBodySize    int

	// Input flags
	InputFile  string
	Email      bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string

	// Args are the positional arguments, classified as one message
	Args []string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	return ParseFlagSet(flag.CommandLine, os.Args[1:])
}

// ParseFlagSet registers the CLI flags on fs and parses args
func ParseFlagSet(fs *flag.FlagSet, args []string) *CLIFlags {
	flags := &CLIFlags{}

	// Artifact flags
	fs.StringVar(&flags.VectorizerPath, "vectorizer", "artifacts/vectorizer.json", "Vectorizer artifact (path or s3://bucket/key)")
	fs.StringVar(&flags.ModelPath, "model", "artifacts/model.json", "Model artifact (path or s3://bucket/key)")
	fs.IntVar(&flags.MaxBodySize, "max-body-size", 64*1024, "Maximum message size to classify")

	// Input flags
	fs.StringVar(&flags.InputFile, "file", "", "Input file (use arguments or stdin if not specified)")
	fs.BoolVar(&flags.Email, "email", false, "Treat the input as an RFC 5322 email")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides artifact flags)")

	// ExitOnError flag sets never return an error here
	_ = fs.Parse(args)
	flags.Args = fs.Args()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			v := cfg.GetViper()
			v.Set("filter.type", "cli")
			v.Set("cli.verbose", flags.Verbose)
			v.Set("cli.max_message_bytes", flags.MaxBodySize)
			logger.Info("Loaded configuration from file", zap.String("file", v.ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideClassifier(container); err != nil {
		return nil, err
	}

	// The CLI keeps no history
	if err := container.Provide(func() ports.HistoryRecorder { return nil }); err != nil {
		return nil, err
	}

	// Register CLI filter
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FilterFactory) *filter.CliFilter {
		return f.CreateCliFilter(os.Stdout)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("filter.type", "cli")
	v.Set("cli.verbose", flags.Verbose)
	v.Set("cli.max_message_bytes", flags.MaxBodySize)

	v.Set("artifacts.vectorizer_path", flags.VectorizerPath)
	v.Set("artifacts.model_path", flags.ModelPath)

	return config.NewFromViper(v)
}
