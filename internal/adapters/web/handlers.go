// Package web serves the classifier page, its JSON API and the history
// delete endpoint.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/ports"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed templates/index.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Handler serves the classifier endpoints
type Handler struct {
	classifier      ports.Classifier
	history         ports.History
	textProcessor   *utils.TextProcessor
	logger          *zap.Logger
	page            *template.Template
	maxMessageBytes int64
}

// NewHandler creates a new handler. maxMessageBytes bounds request bodies.
func NewHandler(
	classifier ports.Classifier,
	history ports.History,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	maxMessageBytes int64,
) (*Handler, error) {
	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		classifier:      classifier,
		history:         history,
		textProcessor:   textProcessor,
		logger:          logger,
		page:            page,
		maxMessageBytes: maxMessageBytes,
	}, nil
}

type pageData struct {
	Prediction string
	History    []core.HistoryRecord
	Source     core.HistorySource
}

type classifyRequest struct {
	Message *string `json:"message"`
}

type classifyResponse struct {
	Prediction    string             `json:"prediction"`
	Normalized    string             `json:"normalized"`
	ProcessingID  string             `json:"processing_id"`
	HistorySource core.HistorySource `json:"history_source"`
}

type historyResponse struct {
	Source core.HistorySource   `json:"source"`
	Items  []core.HistoryRecord `json:"items"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

// Index renders the page without a prediction
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "")
}

// Submit classifies the "message" form field and renders the prediction
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxMessageBytes)
	if err := r.ParseMultipartForm(h.maxMessageBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.bodyError(w, err)
		return
	}

	values, ok := r.PostForm["message"]
	if !ok || len(values) == 0 {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	result, ok := h.classify(w, r, values[0])
	if !ok {
		return
	}
	source := h.history.Record(r.Context(), result.Message, result.Label)
	h.logger.Debug("Recorded prediction", zap.String("history_source", string(source)))

	h.render(w, r, result.Label)
}

// Classify is the JSON form of Submit
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxMessageBytes)

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.bodyError(w, err)
		return
	}
	if req.Message == nil {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	result, ok := h.classify(w, r, *req.Message)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse{
		Prediction:    result.Label,
		Normalized:    result.Normalized,
		ProcessingID:  result.ProcessingID,
		HistorySource: h.history.Record(r.Context(), result.Message, result.Label),
	})
}

// History lists recent records as JSON
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, source := h.history.Recent(r.Context(), limit)
	if records == nil {
		records = []core.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Source: source, Items: records})
}

// DeleteMessage removes one history record
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, deleteResponse{Success: false})
		return
	}

	if !h.history.Delete(r.Context(), id) {
		h.logger.Info("History record not deleted", zap.Int64("id", id))
		writeJSON(w, http.StatusNotFound, deleteResponse{Success: false})
		return
	}

	h.logger.Info("Deleted history record", zap.Int64("id", id))
	writeJSON(w, http.StatusOK, deleteResponse{Success: true})
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// classify runs the classifier on a sanitized message, writing a 500 on
// failure.
func (h *Handler) classify(w http.ResponseWriter, r *http.Request, message string) (*core.ClassificationResult, bool) {
	message = h.textProcessor.SanitizeUTF8(message)

	result, err := h.classifier.Classify(r.Context(), message)
	if err != nil {
		h.logger.Error("Failed to classify message", zap.Error(err))
		http.Error(w, "classification failed", http.StatusInternalServerError)
		return nil, false
	}

	return result, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, prediction string) {
	records, source := h.history.Recent(r.Context(), h.history.Limit())

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, pageData{Prediction: prediction, History: records, Source: source}); err != nil {
		h.logger.Error("Failed to render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (h *Handler) bodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "message too large", http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "invalid request body", http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
