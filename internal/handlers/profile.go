package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mealbuddy/server/internal/models"
	"github.com/mealbuddy/server/internal/services"
)

type ProfileHandler struct {
	users services.UserServiceInterface
}

func NewProfileHandler(users services.UserServiceInterface) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// Get returns the caller's stored profile, creating it on first access.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	profile, err := h.users.GetOrCreate(r.Context(), user.ID, user.Email, user.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var params models.UpdateProfileParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Ensure the row exists before the first update.
	if _, err := h.users.GetOrCreate(r.Context(), user.ID, user.Email, user.DisplayName); err != nil {
		writeServiceError(w, err)
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), user.ID, params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// GetPublic returns the public card for another user, looked up by email.
func (h *ProfileHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}

	profile, err := h.users.GetPublicByEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
