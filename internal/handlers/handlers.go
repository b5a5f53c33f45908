package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/agriscan/agriscan-api/internal/engine"
	"github.com/agriscan/agriscan-api/internal/model"
	"github.com/agriscan/agriscan-api/internal/rank"
	"github.com/agriscan/agriscan-api/internal/store"
	"github.com/agriscan/agriscan-api/internal/treatment"
	"github.com/agriscan/agriscan-api/internal/upload"
)

const (
	ServiceName    = "AgriScan AI"
	ServiceMessage = "AgriScan AI - Plant Disease Detection API"
	ServiceVersion = "1.0"

	defaultHistoryLimit = 20
)

// Handler owns the HTTP surface of the prediction pipeline. All
// collaborators are passed in explicitly; it holds no mutable state of
// its own.
type Handler struct {
	classifier   engine.Classifier
	store        store.Store
	validator    *upload.Validator
	treatments   *treatment.Catalogue
	topK         int
	modelVersion string
}

// NewHandler wires the pipeline stages together.
func NewHandler(classifier engine.Classifier, st store.Store, validator *upload.Validator, treatments *treatment.Catalogue, topK int, modelVersion string) *Handler {
	return &Handler{
		classifier:   classifier,
		store:        st,
		validator:    validator,
		treatments:   treatments,
		topK:         topK,
		modelVersion: modelVersion,
	}
}

// Predict accepts a multipart image upload, classifies it, persists the
// result, and returns the ranked prediction. Validation runs before any
// inference work; each failure maps to a status code at this boundary and
// nowhere else.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Cap the request body slightly above the upload limit so an
	// oversized file is still observed and answered with 413 rather than
	// an aborted read.
	r.Body = http.MaxBytesReader(w, r.Body, h.validator.MaxSize()+1<<20)

	if err := r.ParseMultipartForm(h.validator.MaxSize() + 1<<20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file size exceeds maximum allowed size")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "form field 'file' is required")
		return
	}
	defer file.Close()

	if err := h.validator.Validate(header.Filename, header.Header.Get("Content-Type"), header.Size); err != nil {
		writeError(w, validationStatus(err), err.Error())
		return
	}

	fileContent, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	if int64(len(fileContent)) > h.validator.MaxSize() {
		writeError(w, http.StatusRequestEntityTooLarge, "file size exceeds maximum allowed size")
		return
	}

	probs, err := h.classifier.Classify(r.Context(), fileContent)
	if err != nil {
		if errors.Is(err, engine.ErrDecode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("prediction error: %v", err)
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	result, err := rank.TopK(probs, h.classifier.Labels(), h.topK)
	if err != nil {
		log.Printf("ranking error: %v", err)
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	timestamp := time.Now().UTC()
	rec := model.PredictionRecord{
		Filename:         header.Filename,
		Timestamp:        timestamp,
		PredictedDisease: result.PredictedDisease,
		Confidence:       result.Confidence,
		AllPredictions:   result.Ranked,
		ModelVersion:     h.modelVersion,
	}

	id, err := h.store.Insert(r.Context(), rec)
	if err != nil {
		// The classification is already computed; it is not retried or
		// cached for later persistence, only logged and surfaced as a
		// failure of this request.
		log.Printf("failed to store prediction: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store prediction")
		return
	}

	writeJSON(w, http.StatusOK, model.PredictionResponse{
		PredictionID:     id,
		Filename:         header.Filename,
		PredictedDisease: result.PredictedDisease,
		Confidence:       round4(result.Confidence),
		AllPredictions:   roundRanked(result.Ranked),
		Timestamp:        timestamp.Format(time.RFC3339Nano),
	})
}

// History serves a newest-first page of past predictions.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := queryInt(r, "limit", defaultHistoryLimit)
	skip := queryInt(r, "skip", 0)

	records, total, err := h.store.History(r.Context(), limit, skip)
	if err != nil {
		log.Printf("history retrieval error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve history")
		return
	}

	results := make([]model.HistoryEntry, 0, len(records))
	for _, rec := range records {
		results = append(results, model.HistoryEntry{
			PredictionID:     rec.PredictionID,
			Filename:         rec.Filename,
			Timestamp:        rec.Timestamp.Format(time.RFC3339Nano),
			PredictedDisease: rec.PredictedDisease,
			Confidence:       round4(rec.Confidence),
			AllPredictions:   roundRanked(rec.AllPredictions),
			ModelVersion:     rec.ModelVersion,
		})
	}

	writeJSON(w, http.StatusOK, model.HistoryResponse{Total: total, Results: results})
}

// Health reports process liveness only. It deliberately does not touch the
// classifier or the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Root serves the service banner.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": ServiceMessage,
		"version": ServiceVersion,
	})
}

// Treatments looks up remediation steps for a disease label given as the
// trailing path segment.
func (h *Handler) Treatments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/treatments/")
	disease, err := url.PathUnescape(raw)
	if err != nil || disease == "" {
		writeError(w, http.StatusBadRequest, "disease label is required")
		return
	}

	entries, ok := h.treatments.Lookup(disease)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no treatments known for %q", disease))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"disease":    disease,
		"treatments": entries,
	})
}

func validationStatus(err error) int {
	switch {
	case errors.Is(err, upload.ErrMissingFile):
		return http.StatusBadRequest
	case errors.Is(err, upload.ErrUnsupportedExtension), errors.Is(err, upload.ErrUnsupportedMimeType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, upload.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// round4 rounds to 4 decimal places. Applied only at this presentation
// boundary; stored confidences keep full precision.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func roundRanked(ranked []model.RankedPrediction) []model.RankedPrediction {
	out := make([]model.RankedPrediction, len(ranked))
	for i, p := range ranked {
		out[i] = model.RankedPrediction{Class: p.Class, Confidence: round4(p.Confidence)}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
