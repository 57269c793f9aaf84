// Package handlers provides the HTTP handlers and middleware for the kith
// API: extraction, disambiguation, commit, and the roster CRUD surface the
// review UI drives.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/rkeeling/kith/internal/config"
	"github.com/rkeeling/kith/internal/engine"
	"github.com/rkeeling/kith/internal/importer"
	"github.com/rkeeling/kith/internal/llm"
	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/pkg/types"
)

// ExtractionService is the narrow contract the handlers need from the
// extraction client. Satisfied by *llm.Extractor.
type ExtractionService interface {
	Extract(ctx context.Context, transcript string, personCtx *llm.PersonContext) (*types.Candidate, error)
	Disambiguate(ctx context.Context, transcript string, roster []*types.Person) (*types.Disambiguation, error)
}

// Handlers bundles the API handler set and its dependencies.
type Handlers struct {
	engine    *engine.Engine
	store     storage.Store
	extractor ExtractionService
	importer  *importer.RosterImporter
	config    *config.Config
	hub       *WebSocketHub
}

// New creates the handler set. extractor may be nil when no extraction
// provider is configured; the extract and disambiguate endpoints then return
// 503.
func New(eng *engine.Engine, extractor ExtractionService, cfg *config.Config, hub *WebSocketHub) *Handlers {
	return &Handlers{
		engine:    eng,
		store:     eng.Store(),
		extractor: extractor,
		importer:  importer.NewRosterImporter(eng.Store()),
		config:    cfg,
		hub:       hub,
	}
}

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; nothing left to do but log.
		log.Printf("failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}
	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}
	respondJSON(w, statusCode, errResp)
}

// decodeJSON decodes the request body into dst, returning false after
// writing a 400 response when the body is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

// loadRoster pages through the full roster. The resolver needs every person,
// not one page.
func (h *Handlers) loadRoster(ctx context.Context) ([]*types.Person, error) {
	var roster []*types.Person
	opts := storage.ListOptions{Page: 1, Limit: 200}
	for {
		page, err := h.store.ListPersons(ctx, opts)
		if err != nil {
			return nil, err
		}
		for i := range page.Items {
			roster = append(roster, &page.Items[i])
		}
		if !page.HasMore {
			return roster, nil
		}
		opts.Page++
	}
}
