// Package handlers exposes the admin HTTP surface: import triggers, patient
// lookup and operational stats.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/txtalert/platform/internal/importer"
	"github.com/txtalert/platform/pkg/logging"
)

// VisitImporter runs one visit import for a source tag.
type VisitImporter interface {
	ImportVisits(ctx context.Context, source string) (importer.VisitCounts, error)
}

// PatientImporter runs one patient import for a source tag.
type PatientImporter interface {
	ImportPatients(ctx context.Context, source string) (importer.PatientCounts, error)
}

// ImportsHandler triggers import runs over HTTP. Without an explicit source
// in the request body, every configured source is imported.
type ImportsHandler struct {
	visits   VisitImporter
	patients PatientImporter
	sources  []string
	logger   *logging.Logger
}

func NewImportsHandler(visits VisitImporter, patients PatientImporter, sources []string, logger *logging.Logger) *ImportsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ImportsHandler{
		visits:   visits,
		patients: patients,
		sources:  sources,
		logger:   logger.Component("imports_handler"),
	}
}

type importRequest struct {
	Source string `json:"source"`
}

func (h *ImportsHandler) requestedSources(r *http.Request) ([]string, error) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if req.Source != "" {
		return []string{req.Source}, nil
	}
	if len(h.sources) == 0 {
		return nil, errors.New("no source given and none configured")
	}
	return h.sources, nil
}

// ImportVisits handles POST /admin/imports/visits.
func (h *ImportsHandler) ImportVisits(w http.ResponseWriter, r *http.Request) {
	sources, err := h.requestedSources(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results := make(map[string]importer.VisitCounts, len(sources))
	for _, source := range sources {
		counts, err := h.visits.ImportVisits(r.Context(), source)
		results[source] = counts
		if err != nil {
			h.logger.Error("visit import failed", "source", source, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"results": results,
				"error":   err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// ImportPatients handles POST /admin/imports/patients.
func (h *ImportsHandler) ImportPatients(w http.ResponseWriter, r *http.Request) {
	sources, err := h.requestedSources(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results := make(map[string]importer.PatientCounts, len(sources))
	for _, source := range sources {
		counts, err := h.patients.ImportPatients(r.Context(), source)
		results[source] = counts
		if err != nil {
			h.logger.Error("patient import failed", "source", source, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"results": results,
				"error":   err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
