package filter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/utils"
	"go.uber.org/zap/zaptest"
)

func newTestCliFilter(t *testing.T, classifier *keywordClassifier, verbose bool) (*CliFilter, *bytes.Buffer) {
	logger := zaptest.NewLogger(t)
	var out bytes.Buffer
	return NewCliFilter(classifier, utils.NewTextProcessor(logger), logger, &out, 1024, verbose), &out
}

func TestCliProcessText(t *testing.T) {
	f, out := newTestCliFilter(t, &keywordClassifier{}, true)

	result, err := f.ProcessText(context.Background(), "Get FREE cash now")
	if err != nil {
		t.Fatalf("ProcessText: %v", err)
	}
	if result.Label != core.LabelSpam {
		t.Fatalf("expected spam, got %q", result.Label)
	}

	report := out.String()
	for _, want := range []string{"=== Message ===", "Prediction: Spam", "Processing ID: pid-1", "Model digest:"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestCliProcessTextEmpty(t *testing.T) {
	f, _ := newTestCliFilter(t, &keywordClassifier{}, false)

	if _, err := f.ProcessText(context.Background(), "  \n "); !errors.Is(err, core.ErrMessageRequired) {
		t.Fatalf("expected ErrMessageRequired, got %v", err)
	}
}

func TestCliProcessEmail(t *testing.T) {
	classifier := &keywordClassifier{}
	f, out := newTestCliFilter(t, classifier, false)

	email, err := ParseEmail([]byte(hamMessage))
	if err != nil {
		t.Fatalf("ParseEmail: %v", err)
	}
	if email.Subject != "Lunch" || len(email.To) != 1 || email.To[0] != "bob@example.net" {
		t.Fatalf("unexpected parsed email %+v", email)
	}

	result, err := f.ProcessEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("ProcessEmail: %v", err)
	}
	if result.IsSpam {
		t.Fatal("expected ham")
	}
	if classifier.messages[0] != "Lunch\nSee you at noon" {
		t.Fatalf("unexpected classifier input %q", classifier.messages[0])
	}

	report := out.String()
	if !strings.Contains(report, "From: alice@example.com") || !strings.Contains(report, "Prediction: Not Spam") {
		t.Fatalf("unexpected report:\n%s", report)
	}
	if strings.Contains(report, "Model digest:") {
		t.Fatal("digests are only printed when verbose")
	}
}

func TestCliClassifierError(t *testing.T) {
	f, out := newTestCliFilter(t, &keywordClassifier{err: core.ErrDimensionMismatch}, false)

	if _, err := f.ProcessText(context.Background(), "hello"); !errors.Is(err, core.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
	if !strings.Contains(out.String(), "Error: ") {
		t.Fatalf("error must be reported:\n%s", out.String())
	}
}

func TestParseEmailInvalid(t *testing.T) {
	if _, err := ParseEmail([]byte("not a header\r\n\r\n")); err == nil {
		t.Fatal("expected parse error")
	}
}
