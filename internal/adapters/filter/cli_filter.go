package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/ports"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/utils"
	"go.uber.org/zap"
)

// CliFilter implements a command-line interface for spam detection
type CliFilter struct {
	classifier    ports.Classifier
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	out           io.Writer
	maxSize       int
	verbose       bool
}

// NewCliFilter creates a new CLI filter writing its report to out
func NewCliFilter(
	classifier ports.Classifier,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	out io.Writer,
	maxSize int,
	verbose bool,
) *CliFilter {
	return &CliFilter{
		classifier:    classifier,
		textProcessor: textProcessor,
		logger:        logger,
		out:           out,
		maxSize:       maxSize,
		verbose:       verbose,
	}
}

// ProcessText classifies a plain message and prints the result
func (f *CliFilter) ProcessText(ctx context.Context, text string) (*core.ClassificationResult, error) {
	message := f.textProcessor.PrepareMessage(text, f.maxSize)
	if strings.TrimSpace(message) == "" {
		return nil, core.ErrMessageRequired
	}

	if f.verbose {
		fmt.Fprintf(f.out, "\n=== Message ===\n%s\n", preview(message))
	}
	return f.classify(ctx, message)
}

// ParseEmail reads a raw RFC 5322 message into an Email
func ParseEmail(raw []byte) (*core.Email, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract email text: %w", err)
	}

	var to []string
	if addrs, err := msg.Header.AddressList("To"); err == nil {
		for _, addr := range addrs {
			to = append(to, addr.Address)
		}
	}

	return &core.Email{
		From:    msg.Header.Get("From"),
		To:      to,
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Body:    body,
		Headers: msg.Header,
	}, nil
}

// ProcessEmail processes an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.ClassificationResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	fmt.Fprintf(f.out, "\n=== Email Summary ===\n")
	fmt.Fprintf(f.out, "From: %s\n", email.From)
	fmt.Fprintf(f.out, "To: %s\n", strings.Join(email.To, ", "))
	fmt.Fprintf(f.out, "Subject: %s\n", email.Subject)
	fmt.Fprintf(f.out, "Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		fmt.Fprintf(f.out, "\nBody preview:\n%s\n", preview(email.Body))
	}

	text := email.Subject
	if email.Body != "" {
		text += "\n" + email.Body
	}
	message := f.textProcessor.PrepareMessage(text, f.maxSize)
	if strings.TrimSpace(message) == "" {
		return nil, core.ErrMessageRequired
	}
	return f.classify(ctx, message)
}

func (f *CliFilter) classify(ctx context.Context, message string) (*core.ClassificationResult, error) {
	fmt.Fprintf(f.out, "\n=== Analysis ===\n")
	startTime := time.Now()
	result, err := f.classifier.Classify(ctx, message)
	if err != nil {
		f.logger.Error("Failed to classify message", zap.Error(err))
		fmt.Fprintf(f.out, "Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Prediction: %s\n", result.Label)
	fmt.Fprintf(f.out, "Is spam: %t\n", result.IsSpam)
	fmt.Fprintf(f.out, "Normalized: %s\n", result.Normalized)
	fmt.Fprintf(f.out, "Processing ID: %s\n", result.ProcessingID)
	fmt.Fprintf(f.out, "Processing time: %v\n", duration)
	if f.verbose {
		fmt.Fprintf(f.out, "Vectorizer digest: %s\n", result.VectorizerDigest)
		fmt.Fprintf(f.out, "Model digest: %s\n", result.ModelDigest)
	}

	return result, nil
}

func preview(text string) string {
	const limit = 500
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
