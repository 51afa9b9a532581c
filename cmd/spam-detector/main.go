package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/adapters/filter"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	var result *core.ClassificationResult
	err = container.Invoke(func(cliFilter *filter.CliFilter, logger *zap.Logger) error {
		defer logger.Sync()

		input, err := readInput(flags, logger)
		if err != nil {
			return err
		}

		if flags.Email {
			email, err := filter.ParseEmail(input)
			if err != nil {
				return err
			}
			result, err = cliFilter.ProcessEmail(context.Background(), email)
			return err
		}

		result, err = cliFilter.ProcessText(context.Background(), string(input))
		return err
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// exit status 2 marks spam for shell pipelines
	if result != nil && result.IsSpam {
		os.Exit(2)
	}
}

// readInput reads the message from the input file, the arguments or stdin
func readInput(flags *di.CLIFlags, logger *zap.Logger) ([]byte, error) {
	if flags.InputFile != "" {
		logger.Info("Reading message from file", zap.String("file", flags.InputFile))
		data, err := os.ReadFile(flags.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		return data, nil
	}

	if len(flags.Args) > 0 {
		return []byte(strings.Join(flags.Args, " ")), nil
	}

	logger.Info("Reading message from stdin")
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}
