package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/mealbuddy/server/internal/logging"
	"github.com/mealbuddy/server/internal/models"
	"github.com/mealbuddy/server/internal/services"
)

type ChatHandler struct {
	chats       services.ChatServiceInterface
	matches     services.MatchServiceInterface
	requests    services.RequestServiceInterface
	users       services.UserServiceInterface
	recommender services.RecommenderInterface
	logger      *logging.Logger
}

func NewChatHandler(chats services.ChatServiceInterface, matches services.MatchServiceInterface, requests services.RequestServiceInterface, users services.UserServiceInterface, recommender services.RecommenderInterface, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default
	}
	return &ChatHandler{
		chats:       chats,
		matches:     matches,
		requests:    requests,
		users:       users,
		recommender: recommender,
		logger:      logger,
	}
}

// authorize loads the match and verifies the caller participates in it.
func (h *ChatHandler) authorize(r *http.Request) (*models.Match, error) {
	user := GetUserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		return nil, fmt.Errorf("%w: invalid match id", services.ErrInvalidInput)
	}

	match, err := h.matches.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if match.RequesterEmail != user.Email && match.InviteeEmail != user.Email {
		return nil, services.ErrNotParticipant
	}
	return match, nil
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	match, err := h.authorize(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	messages, err := h.chats.List(r.Context(), match.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	match, err := h.authorize(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.chats.Append(r.Context(), match.ID, user.Email, body.Text); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// Suggestions returns place and event ideas for a fresh match. Once the
// conversation has started the icebreaker is no longer offered and the
// response is empty.
func (h *ChatHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	match, err := h.authorize(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	messages, err := h.chats.List(r.Context(), match.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(messages) > 0 {
		writeJSON(w, http.StatusOK, emptySuggestions())
		return
	}

	user := GetUserFromContext(r.Context())
	writeJSON(w, http.StatusOK, h.buildSuggestions(r.Context(), user, match))
}

// Stream pushes the full message list over SSE, once on connect and again
// after every append. If the log is empty on connect, a one-shot suggestions
// event follows the first snapshot.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	match, err := h.authorize(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	user := GetUserFromContext(r.Context())
	suggestionsCh := make(chan models.Suggestions, 1)
	onEmpty := func(ctx context.Context, matchID uuid.UUID) {
		go func() {
			suggestionsCh <- h.buildSuggestions(ctx, user, match)
		}()
	}

	stream, cancel, err := h.chats.Subscribe(r.Context(), match.ID, onEmpty)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case snapshot, ok := <-stream:
			if !ok {
				return
			}
			h.writeEvent(w, flusher, "messages", snapshot)
		case suggestions := <-suggestionsCh:
			h.writeEvent(w, flusher, "suggestions", suggestions)
		case <-r.Context().Done():
			return
		}
	}
}

func (h *ChatHandler) writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encoding stream event", map[string]interface{}{
			"event": event,
			"error": err.Error(),
		})
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

// buildSuggestions queries the recommendation adapter around the meal
// location. Failures inside the adapter already degrade to empty lists, so
// this never errors.
func (h *ChatHandler) buildSuggestions(ctx context.Context, user *models.User, match *models.Match) models.Suggestions {
	location, category, radius := h.suggestionContext(ctx, user, match)
	if location == nil {
		return emptySuggestions()
	}

	query := services.SuggestionQuery{
		Latitude:    location.Latitude,
		Longitude:   location.Longitude,
		Category:    category,
		RadiusMiles: radius,
	}
	return models.Suggestions{
		Places: h.recommender.Places(ctx, query),
		Events: h.recommender.Events(ctx, query),
	}
}

func (h *ChatHandler) suggestionContext(ctx context.Context, user *models.User, match *models.Match) (*models.GeoPoint, string, float64) {
	var location *models.GeoPoint
	var category string

	if request, err := h.requests.GetByID(ctx, match.RequestID); err == nil {
		location = request.Location
		category = request.Cuisine
	} else {
		h.logger.Warn("suggestion context without request", map[string]interface{}{
			"match_id": match.ID.String(),
			"error":    err.Error(),
		})
	}

	radius := float64(defaultRadiusMiles)
	if profile, err := h.users.GetByID(ctx, user.ID); err == nil {
		if location == nil {
			location = profile.Location
		}
		if profile.PreferredRadiusMiles > 0 {
			radius = float64(profile.PreferredRadiusMiles)
		}
	}
	return location, category, radius
}

func emptySuggestions() models.Suggestions {
	return models.Suggestions{
		Places: []models.Place{},
		Events: []models.Event{},
	}
}
