package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/ingest"
	"github.com/opensource-finance/kestrel/internal/rules"
	"github.com/opensource-finance/kestrel/internal/scoring"
)

// maxUploadBytes caps invoice file uploads.
const maxUploadBytes = 1 << 20 // 1 MiB

// Handler holds dependencies for API handlers.
type Handler struct {
	engine  *rules.Engine
	version string
}

// NewHandler creates a new API handler.
func NewHandler(engine *rules.Engine, version string) *Handler {
	return &Handler{
		engine:  engine,
		version: version,
	}
}

// ValidateResponse is the response envelope for validation endpoints.
type ValidateResponse struct {
	ValidationID string         `json:"validationId"`
	Report       *domain.Report `json:"report"`
	Metadata     struct {
		TraceID string `json:"traceId"`
		TotalMs int64  `json:"totalMs"`
		Version string `json:"version"`
	} `json:"metadata"`
}

// Validate handles POST /v1/validate: the body is the invoice record itself.
// A malformed body still yields HTTP 200 with the degenerate PARSER report;
// the contract is always "record in, report out".
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
		return
	}

	rec, err := ingest.DecodeJSON(body)
	if err != nil {
		h.writeReport(w, r, ingest.FailureReport(err.Error()), start)
		return
	}

	h.writeReport(w, r, h.run(rec), start)
}

// ValidateFile handles POST /v1/validate/file: a multipart upload decoded by
// filename. Decode failures yield the degenerate PARSER report.
func (h *Handler) ValidateFile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid multipart request",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "file part is required",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "failed to read uploaded file",
		})
		return
	}

	rec, err := ingest.Decode(header.Filename, data)
	if err != nil {
		h.writeReport(w, r, ingest.FailureReport(err.Error()), start)
		return
	}

	h.writeReport(w, r, h.run(rec), start)
}

// ListRules handles GET /v1/rules: the loaded checks in evaluation order.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	checks := h.engine.Checks()
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": checks,
		"count": len(checks),
	})
}

// Sample handles GET /v1/sample: the canonical sample record.
func (h *Handler) Sample(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ingest.SampleRecord())
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

// Ready handles GET /ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// run evaluates the record and composes the report.
func (h *Handler) run(rec domain.Record) *domain.Report {
	findings := h.engine.Evaluate(rec)
	return scoring.Compose(rec, findings)
}

// writeReport wraps a report in the response envelope.
func (h *Handler) writeReport(w http.ResponseWriter, r *http.Request, report *domain.Report, start time.Time) {
	resp := ValidateResponse{
		ValidationID: uuid.New().String(),
		Report:       report,
	}
	resp.Metadata.TraceID = GetTraceID(r.Context())
	resp.Metadata.TotalMs = time.Since(start).Milliseconds()
	resp.Metadata.Version = h.version

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
