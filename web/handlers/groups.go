package handlers

import (
	"net/http"
	"strings"
)

// ListGroups handles GET /api/groups.
func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list groups", err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

// CreateGroupRequest is the request body for POST /api/groups.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// CreateGroup handles POST /api/groups. Group names are unique
// case-insensitively; creating an existing name returns the existing group.
func (h *Handlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "group name is required", nil)
		return
	}

	group, err := h.engine.EnsureGroup(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create group", err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}
