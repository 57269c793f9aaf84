package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ImportRequest is the request body for POST /api/import/roster.
type ImportRequest struct {
	// Path is the directory of person cards on the server's filesystem.
	Path string `json:"path"`
}

// ImportResponse acknowledges a started import job.
type ImportResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// StartRosterImport handles POST /api/import/roster: kicks off an async
// import of person cards and returns the job ID.
func (h *Handlers) StartRosterImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		respondError(w, http.StatusBadRequest, "path is required", nil)
		return
	}

	// The job must outlive this request; detach it from the request context.
	jobID, err := h.importer.StartImport(context.Background(), req.Path)
	if err != nil {
		respondError(w, http.StatusBadRequest, "cannot start import", err)
		return
	}

	respondJSON(w, http.StatusAccepted, ImportResponse{JobID: jobID, Status: "running"})
}

// ImportStatusResponse combines live progress with the final result once
// the job completes.
type ImportStatusResponse struct {
	Progress interface{} `json:"progress"`
	Result   interface{} `json:"result,omitempty"`
}

// GetImportStatus handles GET /api/import/status/{job_id}.
func (h *Handlers) GetImportStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	progress, ok := h.importer.GetJobProgress(jobID)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown import job", nil)
		return
	}

	resp := ImportStatusResponse{Progress: progress}
	if result := h.importer.GetJobResult(jobID); result != nil {
		resp.Result = result
	}
	respondJSON(w, http.StatusOK, resp)
}
