package di

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/config"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/ports"
)

const (
	testVectorizer = "../../artifacts/vectorizer.json"
	testModel      = "../../artifacts/model.json"
)

func testConfig() *config.Config {
	v := config.NewEmptyViper()
	v.Set("artifacts.vectorizer_path", testVectorizer)
	v.Set("artifacts.model_path", testModel)
	v.Set("logging.level", "error")
	return config.NewFromViper(v)
}

func TestServerContainerClassifies(t *testing.T) {
	container, err := BuildContainerWithConfig(testConfig())
	if err != nil {
		t.Fatalf("BuildContainerWithConfig: %v", err)
	}

	err = container.Invoke(func(router http.Handler, history *core.HistoryService, filter ports.EmailFilter) {
		if history.Durable() {
			t.Error("expected in-memory history without a database url")
		}
		if filter == nil {
			t.Error("expected an email filter")
		}

		req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(`{"message":"Win FREE cash now!!!"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		if resp["prediction"] != core.LabelSpam || resp["normalized"] != "win free cash" {
			t.Fatalf("unexpected classification %v", resp)
		}
		if resp["history_source"] != string(core.SourceMemory) {
			t.Fatalf("unexpected history source %q", resp["history_source"])
		}
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
}

func TestServerContainerFormSubmit(t *testing.T) {
	container, err := BuildContainerWithConfig(testConfig())
	if err != nil {
		t.Fatalf("BuildContainerWithConfig: %v", err)
	}

	err = container.Invoke(func(router http.Handler, history *core.HistoryService) {
		form := url.Values{"message": {"Congratulations! You won a free prize, claim now"}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := rec.Body.String()
		if !strings.Contains(body, `text-danger">Spam</p>`) || strings.Contains(body, "Not Spam") {
			t.Fatalf("expected a spam prediction in page:\n%s", body)
		}

		records, _ := history.Recent(context.Background(), 0)
		if len(records) != 1 || records[0].Prediction != core.LabelSpam {
			t.Fatalf("unexpected history %+v", records)
		}
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
}

func TestServerContainerMissingArtifacts(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("artifacts.vectorizer_path", t.TempDir()+"/missing.json")
	v.Set("logging.level", "error")

	container, err := BuildContainerWithConfig(config.NewFromViper(v))
	if err != nil {
		t.Fatalf("BuildContainerWithConfig: %v", err)
	}
	if err := container.Invoke(func(ports.Classifier) {}); err == nil {
		t.Fatal("expected missing artifact to fail")
	}
}

func TestCLIContainer(t *testing.T) {
	fs := flag.NewFlagSet("spam-detector", flag.ContinueOnError)
	flags := ParseFlagSet(fs, []string{
		"-vectorizer", testVectorizer,
		"-model", testModel,
		"-max-body-size", "128",
		"See", "you", "at", "lunch",
	})

	if strings.Join(flags.Args, " ") != "See you at lunch" || flags.MaxBodySize != 128 {
		t.Fatalf("unexpected flags %+v", flags)
	}

	container, err := BuildCLIContainer(flags)
	if err != nil {
		t.Fatalf("BuildCLIContainer: %v", err)
	}

	err = container.Invoke(func(classifier ports.Classifier, cfg *config.Config) {
		if cfg.GetString("filter.type") != "cli" {
			t.Errorf("unexpected filter type %q", cfg.GetString("filter.type"))
		}

		result, err := classifier.Classify(context.Background(), strings.Join(flags.Args, " "))
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if result.Label != core.LabelNotSpam || result.Normalized != "see lunch" {
			t.Fatalf("unexpected result %+v", result)
		}
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
}
