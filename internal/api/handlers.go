package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Camillamonteiros/big-data/internal/export"
	"github.com/Camillamonteiros/big-data/internal/pipeline"
	"github.com/Camillamonteiros/big-data/internal/scrape"
	"github.com/Camillamonteiros/big-data/internal/storage"
)

type Handlers struct {
	pipeline *pipeline.Pipeline
	store    *storage.RunStore
	exporter *export.Writer
	logger   *slog.Logger
	maxItems int
}

func NewHandlers(p *pipeline.Pipeline, store *storage.RunStore, exporter *export.Writer, logger *slog.Logger, maxItems int) *Handlers {
	return &Handlers{
		pipeline: p,
		store:    store,
		exporter: exporter,
		logger:   logger,
		maxItems: maxItems,
	}
}

// AnalysisRequest starts a batch for one principal product query.
type AnalysisRequest struct {
	Query    string `json:"query"`
	MaxItems int    `json:"max_items"`
}

// CreateAnalysis runs a full scrape-classify-rank batch synchronously and
// returns the finished result. Batches take minutes; the route relies on the
// server's long write timeout.
func (h *Handlers) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		h.respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	maxItems := req.MaxItems
	if maxItems <= 0 || maxItems > h.maxItems {
		maxItems = h.maxItems
	}

	result, err := h.pipeline.Run(r.Context(), req.Query, maxItems)
	if err != nil {
		h.logger.Error("analysis failed", "query", req.Query, "error", err)
		if errors.Is(err, scrape.ErrListingUnavailable) {
			h.respondError(w, http.StatusBadGateway, "listing page yielded no products")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	if err := h.store.Save(result); err != nil {
		h.logger.Error("failed to persist run", "run", result.RunID, "error", err)
	}

	if h.exporter != nil {
		if _, err := h.exporter.WriteAll(result); err != nil {
			h.logger.Error("failed to export batch CSV", "run", result.RunID, "error", err)
		}
		if _, err := h.exporter.WriteCompatible(result); err != nil {
			h.logger.Error("failed to export compatible CSV", "run", result.RunID, "error", err)
		}
	}

	h.respondJSON(w, http.StatusCreated, result)
}

// GetAnalysis returns a stored run by ID.
func (h *Handlers) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		h.respondError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	result, ok := h.store.Get(runID)
	if !ok {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ListAnalyses returns summaries of every stored run, newest first.
func (h *Handlers) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.store.List())
}

// ExportAnalysis streams a stored run as CSV. ?compatible=true narrows the
// file to oracle-approved records.
func (h *Handlers) ExportAnalysis(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	result, ok := h.store.Get(runID)
	if !ok {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	compatibleOnly := r.URL.Query().Get("compatible") == "true"

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=resultado_final_"+runID+".csv")
	if err := export.Write(w, result, compatibleOnly); err != nil {
		h.logger.Error("failed to stream CSV", "run", runID, "error", err)
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
