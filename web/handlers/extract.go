package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rkeeling/kith/internal/engine"
	"github.com/rkeeling/kith/internal/llm"
	"github.com/rkeeling/kith/internal/similarity"
	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/pkg/types"
)

// ExtractRequest is the request body for POST /api/extract.
type ExtractRequest struct {
	Transcript string `json:"transcript"`

	// PersonID binds the extraction to a known person. Empty runs the
	// new-or-unknown path: contact identification plus group suggestions.
	PersonID string `json:"person_id,omitempty"`
}

// ResolutionResponse is the resolver outcome attached to unbound extractions.
type ResolutionResponse struct {
	Kind              string   `json:"kind"` // "new" | "resolved" | "ambiguous"
	PersonID          string   `json:"person_id,omitempty"`
	CandidateIDs      []string `json:"candidate_ids,omitempty"`
	SuggestedNickname string   `json:"suggested_nickname,omitempty"`
}

// ExtractResponse is the response body for POST /api/extract.
type ExtractResponse struct {
	Candidate  *types.Candidate    `json:"candidate"`
	Resolution *ResolutionResponse `json:"resolution,omitempty"`
}

// Extract handles POST /api/extract. For a bound person the candidate is
// extracted against their known facts and active topics; unbound, the
// resolver runs against the full roster and group suggestions are
// classified.
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		respondError(w, http.StatusServiceUnavailable, "no extraction provider configured", nil)
		return
	}

	var req ExtractRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		respondError(w, http.StatusBadRequest, "transcript is required", nil)
		return
	}

	ctx := r.Context()
	bound := req.PersonID != ""

	var personCtx *llm.PersonContext
	if bound {
		person, err := h.store.GetPerson(ctx, req.PersonID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respondError(w, http.StatusNotFound, "person not found", err)
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to load person", err)
			return
		}
		facts, err := h.store.ListFacts(ctx, person.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load facts", err)
			return
		}
		topics, err := h.store.ListTopics(ctx, person.ID, types.TopicActive)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load topics", err)
			return
		}
		personCtx = &llm.PersonContext{Person: person, Facts: facts, ActiveTopics: topics}
	}

	candidate, err := h.extractor.Extract(ctx, req.Transcript, personCtx)
	if err != nil {
		if errors.Is(err, llm.ErrCircuitOpen) {
			respondError(w, http.StatusServiceUnavailable, "extraction provider unavailable", err)
			return
		}
		respondError(w, http.StatusBadGateway, "extraction failed", err)
		return
	}

	// No-op update facts never reach the reviewer.
	candidate.Facts = engine.PrefilterFacts(candidate.Facts)

	candidate.SuggestedGroups, err = h.engine.ClassifySuggestions(ctx, candidate.SuggestedGroups, bound)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to classify group suggestions", err)
		return
	}

	resp := ExtractResponse{Candidate: candidate}
	if !bound {
		roster, err := h.loadRoster(ctx)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load roster", err)
			return
		}
		res := engine.ResolveContact(candidate.ContactIdentified, roster, candidate.Facts)
		resp.Resolution = &ResolutionResponse{
			Kind:              string(res.Kind),
			PersonID:          res.PersonID,
			CandidateIDs:      res.CandidateIDs,
			SuggestedNickname: res.SuggestedNickname,
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// DisambiguateRequest is the request body for POST /api/disambiguate.
type DisambiguateRequest struct {
	Transcript string `json:"transcript"`
}

// DisambiguateContact handles POST /api/disambiguate: the standalone
// resolver mode run ahead of full extraction. The extraction provider sees
// the roster and attempts the match itself.
func (h *Handlers) DisambiguateContact(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		respondError(w, http.StatusServiceUnavailable, "no extraction provider configured", nil)
		return
	}

	var req DisambiguateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		respondError(w, http.StatusBadRequest, "transcript is required", nil)
		return
	}

	roster, err := h.loadRoster(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load roster", err)
		return
	}

	result, err := h.extractor.Disambiguate(r.Context(), req.Transcript, roster)
	if err != nil {
		if errors.Is(err, llm.ErrCircuitOpen) {
			respondError(w, http.StatusServiceUnavailable, "extraction provider unavailable", err)
			return
		}
		respondError(w, http.StatusBadGateway, "disambiguation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ContactInfoPayload carries accepted contact-info fields on a commit.
// Absent fields are left untouched; empty strings clear.
type ContactInfoPayload struct {
	Phone    *string `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty"`
	Birthday *string `json:"birthday,omitempty"`
}

// CommitPayload is the request body for POST /api/commit.
type CommitPayload struct {
	engine.CommitRequest
	ContactInfo *ContactInfoPayload `json:"contact_info,omitempty"`
}

// Commit handles POST /api/commit: applies the reviewed selections and
// returns the commit report. The report is also broadcast over the websocket
// hub so other review windows refresh.
func (h *Handlers) Commit(w http.ResponseWriter, r *http.Request) {
	var payload CommitPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	req := payload.CommitRequest
	if payload.ContactInfo != nil {
		req.ContactInfo = &storage.ContactInfoUpdate{
			Phone:    payload.ContactInfo.Phone,
			Email:    payload.ContactInfo.Email,
			Birthday: payload.ContactInfo.Birthday,
		}
	}

	report, err := h.engine.Commit(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respondError(w, http.StatusNotFound, "person not found", err)
		case errors.Is(err, storage.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "invalid commit request", err)
		default:
			respondError(w, http.StatusInternalServerError, "commit failed", err)
		}
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(WSEvent{Type: "commit", PersonID: report.PersonID, Payload: report})
	}

	respondJSON(w, http.StatusOK, report)
}

// SimilarityRequest is the request body for POST /api/similarity.
type SimilarityRequest struct {
	Values    []string `json:"values"`
	Threshold float64  `json:"threshold,omitempty"`
}

// SimilarityResponse is the response body for POST /api/similarity.
type SimilarityResponse struct {
	Pairs []similarity.Pair `json:"pairs"`
}

// Similarity handles POST /api/similarity: the human-triggered batch
// near-duplicate scorer. Purely advisory; nothing here feeds the merge path.
func (h *Handlers) Similarity(w http.ResponseWriter, r *http.Request) {
	var req SimilarityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Values) < 2 {
		respondError(w, http.StatusBadRequest, "at least two values are required", nil)
		return
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = 0.5
	}

	pairs := similarity.FindNearDuplicates(req.Values, threshold)
	if pairs == nil {
		pairs = []similarity.Pair{}
	}
	respondJSON(w, http.StatusOK, SimilarityResponse{Pairs: pairs})
}
