package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mealbuddy/server/internal/services"
)

type MatchHandler struct {
	matches  services.MatchServiceInterface
	notifier services.EmailNotifierInterface
}

func NewMatchHandler(matches services.MatchServiceInterface, notifier services.EmailNotifierInterface) *MatchHandler {
	return &MatchHandler{matches: matches, notifier: notifier}
}

type matchStatusResponse struct {
	Status string `json:"status"`
}

// Status reports whether the caller's request is unmatched, matched with the
// given candidate, or matched with someone else. Clients poll this endpoint.
func (h *MatchHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id")
		return
	}
	candidate := r.URL.Query().Get("candidate")
	if candidate == "" {
		writeError(w, http.StatusBadRequest, "candidate query parameter is required")
		return
	}

	status, err := h.matches.EvaluateStatus(r.Context(), id, user.Email, candidate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matchStatusResponse{Status: string(status)})
}

type createMatchRequest struct {
	CandidateEmail string `json:"candidate_email"`
}

// Create accepts an invite on the caller's request. At most one live match
// per request can exist; a lost race surfaces as 409.
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	var body createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.CandidateEmail == "" {
		writeError(w, http.StatusBadRequest, "candidate_email is required")
		return
	}

	match, err := h.matches.Create(r.Context(), id, user.Email, body.CandidateEmail)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.notifier.NotifyMatchCreated(r.Context(), match.InviteeEmail, user.DisplayName)
	writeJSON(w, http.StatusCreated, match)
}

// Delete removes the caller's live match with the given invitee.
func (h *MatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id")
		return
	}
	invitee := r.URL.Query().Get("invitee")
	if invitee == "" {
		writeError(w, http.StatusBadRequest, "invitee query parameter is required")
		return
	}

	if err := h.matches.Delete(r.Context(), id, user.Email, invitee); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List returns every live match the caller participates in.
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	matches, err := h.matches.ListForUser(r.Context(), user.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// Unmatch deletes a match by id, on behalf of either participant.
func (h *MatchHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid match id")
		return
	}

	if err := h.matches.Unmatch(r.Context(), id, user.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
