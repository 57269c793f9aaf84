package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rkeeling/kith/internal/engine"
	"github.com/rkeeling/kith/internal/storage"
)

// GetTopic handles GET /api/topics/{id}.
func (h *Handlers) GetTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	topic, err := h.store.GetTopic(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "topic not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load topic", err)
		return
	}
	respondJSON(w, http.StatusOK, topic)
}

// ResolveTopicRequest is the request body for POST /api/topics/{id}/resolve.
type ResolveTopicRequest struct {
	Resolution string `json:"resolution"`
}

// ResolveTopic handles POST /api/topics/{id}/resolve.
func (h *Handlers) ResolveTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ResolveTopicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Resolution) == "" {
		respondError(w, http.StatusBadRequest, "resolution text is required", nil)
		return
	}

	if err := h.engine.ResolveTopic(r.Context(), id, req.Resolution); err != nil {
		h.respondTopicError(w, err, "failed to resolve topic")
		return
	}
	h.respondTopic(w, r, id)
}

// ReopenTopic handles POST /api/topics/{id}/reopen. The previous resolution
// text is retained on the reopened topic.
func (h *Handlers) ReopenTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.ReopenTopic(r.Context(), id); err != nil {
		h.respondTopicError(w, err, "failed to reopen topic")
		return
	}
	h.respondTopic(w, r, id)
}

// UpdateTopicRequest is the request body for PATCH /api/topics/{id}.
// Title/context edits require an active topic; resolution edits work in any
// state.
type UpdateTopicRequest struct {
	Title      *string `json:"title,omitempty"`
	Context    *string `json:"context,omitempty"`
	Resolution *string `json:"resolution,omitempty"`
}

// UpdateTopic handles PATCH /api/topics/{id}.
func (h *Handlers) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateTopicRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Title != nil || req.Context != nil {
		topic, err := h.store.GetTopic(r.Context(), id)
		if err != nil {
			h.respondTopicError(w, err, "failed to load topic")
			return
		}
		title := topic.Title
		if req.Title != nil {
			title = *req.Title
		}
		topicContext := topic.Context
		if req.Context != nil {
			topicContext = *req.Context
		}
		if err := h.engine.EditTopic(r.Context(), id, title, topicContext); err != nil {
			h.respondTopicError(w, err, "failed to edit topic")
			return
		}
	}

	if req.Resolution != nil {
		if err := h.engine.EditResolution(r.Context(), id, *req.Resolution); err != nil {
			h.respondTopicError(w, err, "failed to edit resolution")
			return
		}
	}

	h.respondTopic(w, r, id)
}

// DeleteTopic handles DELETE /api/topics/{id}.
func (h *Handlers) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.DeleteTopic(r.Context(), id); err != nil {
		h.respondTopicError(w, err, "failed to delete topic")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondTopic reloads the topic and writes it as the success response.
func (h *Handlers) respondTopic(w http.ResponseWriter, r *http.Request, id string) {
	topic, err := h.store.GetTopic(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to reload topic", err)
		return
	}
	respondJSON(w, http.StatusOK, topic)
}

func (h *Handlers) respondTopicError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "topic not found", err)
	case errors.Is(err, engine.ErrTopicNotActive):
		respondError(w, http.StatusConflict, "topic is not active", err)
	default:
		respondError(w, http.StatusInternalServerError, message, err)
	}
}
