package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/pkg/types"
)

// PersonResponse is a person together with their group memberships.
type PersonResponse struct {
	types.Person
	Groups []*types.Group `json:"groups,omitempty"`
}

// ListPersons handles GET /api/persons with pagination, sorting, and search.
func (h *Handlers) ListPersons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := storage.ListOptions{
		Page:      parseInt(q.Get("page"), 1),
		Limit:     parseInt(q.Get("limit"), 25),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Search:    q.Get("search"),
	}

	result, err := h.store.ListPersons(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list persons", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CreatePersonRequest is the request body for POST /api/persons.
type CreatePersonRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Birthday  string `json:"birthday,omitempty"`
}

// CreatePerson handles POST /api/persons: direct roster entry without a
// commit sequence.
func (h *Handlers) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FirstName) == "" {
		respondError(w, http.StatusBadRequest, "first_name is required", nil)
		return
	}

	now := time.Now()
	person := &types.Person{
		ID:        uuid.NewString(),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Nickname:  strings.TrimSpace(req.Nickname),
		Phone:     req.Phone,
		Email:     req.Email,
		Birthday:  req.Birthday,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreatePerson(r.Context(), person); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create person", err)
		return
	}
	respondJSON(w, http.StatusCreated, person)
}

// GetPerson handles GET /api/persons/{id}, returning the person with their
// group memberships.
func (h *Handlers) GetPerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	person, err := h.store.GetPerson(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "person not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load person", err)
		return
	}

	groups, err := h.store.ListGroupsForPerson(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load groups", err)
		return
	}
	respondJSON(w, http.StatusOK, PersonResponse{Person: *person, Groups: groups})
}

// UpdatePersonRequest is the request body for PATCH /api/persons/{id}.
// Nil fields are left unchanged.
type UpdatePersonRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Nickname  *string `json:"nickname,omitempty"`
	Summary   *string `json:"summary,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Birthday  *string `json:"birthday,omitempty"`
}

// UpdatePerson handles PATCH /api/persons/{id}.
func (h *Handlers) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdatePersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	person, err := h.store.GetPerson(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "person not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load person", err)
		return
	}

	if req.FirstName != nil {
		if strings.TrimSpace(*req.FirstName) == "" {
			respondError(w, http.StatusBadRequest, "first_name cannot be empty", nil)
			return
		}
		person.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		person.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Nickname != nil {
		person.Nickname = strings.TrimSpace(*req.Nickname)
	}
	if req.Summary != nil {
		person.Summary = *req.Summary
	}
	if req.Phone != nil {
		person.Phone = *req.Phone
	}
	if req.Email != nil {
		person.Email = *req.Email
	}
	if req.Birthday != nil {
		person.Birthday = *req.Birthday
	}
	person.UpdatedAt = time.Now()

	if err := h.store.UpdatePerson(r.Context(), person); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update person", err)
		return
	}
	respondJSON(w, http.StatusOK, person)
}

// ListPersonFacts handles GET /api/persons/{id}/facts.
func (h *Handlers) ListPersonFacts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.personExists(w, r, id) {
		return
	}
	facts, err := h.store.ListFacts(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list facts", err)
		return
	}
	respondJSON(w, http.StatusOK, facts)
}

// ListPersonTopics handles GET /api/persons/{id}/topics with an optional
// ?status= filter.
func (h *Handlers) ListPersonTopics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.personExists(w, r, id) {
		return
	}
	status := types.TopicStatus(r.URL.Query().Get("status"))
	if status != "" && status != types.TopicActive && status != types.TopicResolved {
		respondError(w, http.StatusBadRequest, "invalid topic status", nil)
		return
	}
	topics, err := h.store.ListTopics(r.Context(), id, status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list topics", err)
		return
	}
	respondJSON(w, http.StatusOK, topics)
}

// ListPersonMemories handles GET /api/persons/{id}/memories.
func (h *Handlers) ListPersonMemories(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.personExists(w, r, id) {
		return
	}
	memories, err := h.store.ListMemories(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list memories", err)
		return
	}
	respondJSON(w, http.StatusOK, memories)
}

// ListPersonNotes handles GET /api/persons/{id}/notes.
func (h *Handlers) ListPersonNotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.personExists(w, r, id) {
		return
	}
	notes, err := h.store.ListNotes(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list notes", err)
		return
	}
	respondJSON(w, http.StatusOK, notes)
}

// AddPersonGroupRequest is the request body for POST /api/persons/{id}/groups.
type AddPersonGroupRequest struct {
	Name string `json:"name"`
}

// AddPersonToGroup handles POST /api/persons/{id}/groups: resolves the group
// by case-insensitive name, creating it when absent, and binds membership.
func (h *Handlers) AddPersonToGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.personExists(w, r, id) {
		return
	}

	var req AddPersonGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "group name is required", nil)
		return
	}

	group, err := h.engine.EnsureGroup(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to resolve group", err)
		return
	}
	if err := h.store.AddPersonToGroup(r.Context(), id, group.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to bind group", err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

// DeleteFact handles DELETE /api/facts/{id}.
func (h *Handlers) DeleteFact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteFact(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "fact not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete fact", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMemory handles DELETE /api/memories/{id}.
func (h *Handlers) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteMemory(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "memory not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete memory", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// personExists writes a 404 and returns false when no person has the ID.
func (h *Handlers) personExists(w http.ResponseWriter, r *http.Request, id string) bool {
	if _, err := h.store.GetPerson(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "person not found", err)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to load person", err)
		}
		return false
	}
	return true
}
