package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mealbuddy/server/internal/logging"
	"github.com/mealbuddy/server/internal/models"
	"github.com/mealbuddy/server/internal/services"
)

const defaultRadiusMiles = 10

var (
	errInvalidCoordinates = errors.New("lat and lon must be valid numbers")
	errInvalidRadius      = errors.New("radius_miles must be a positive number")
)

type RequestHandler struct {
	requests services.RequestServiceInterface
	users    services.UserServiceInterface
	notifier services.EmailNotifierInterface
	logger   *logging.Logger
}

func NewRequestHandler(requests services.RequestServiceInterface, users services.UserServiceInterface, notifier services.EmailNotifierInterface, logger *logging.Logger) *RequestHandler {
	if logger == nil {
		logger = logging.Default
	}
	return &RequestHandler{requests: requests, users: users, notifier: notifier, logger: logger}
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var params models.CreateRequestParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The stored owner snapshot carries profile attributes, so make sure the
	// profile row exists and is current before creating.
	owner, err := h.users.GetOrCreate(r.Context(), user.ID, user.Email, user.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	request, err := h.requests.Create(r.Context(), owner, params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

// ListCandidates returns other users' requests matching the filters, within
// the viewer's radius. Explicit lat/lon/radius_miles query parameters
// override the stored profile values.
func (h *RequestHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	q := r.URL.Query()

	filters := models.RequestFilters{Date: q.Get("date")}
	optional := func(name string) *string {
		if val := q.Get(name); val != "" {
			return &val
		}
		return nil
	}
	filters.Cuisine = optional("cuisine")
	filters.Event = optional("event")
	filters.Gender = optional("gender")
	filters.AgeRange = optional("age_range")

	location, radius, err := h.viewerGeo(r, user)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidates, err := h.requests.ListCandidates(r.Context(), filters, location, radius)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// The viewer's own requests never show up as candidates.
	filtered := make([]*models.Request, 0, len(candidates))
	for _, req := range candidates {
		if req.OwnerEmail != user.Email {
			filtered = append(filtered, req)
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	requests, err := h.requests.ListOwn(r.Context(), user.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	request, err := h.requests.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

type createInviteRequest struct {
	Message string `json:"message"`
}

// CreateInvite appends the caller's invite to the request and notifies the
// owner by email.
func (h *RequestHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	var body createInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.requests.AppendInvite(r.Context(), id, user.Email, body.Message); err != nil {
		writeServiceError(w, err)
		return
	}

	if request, err := h.requests.GetByID(r.Context(), id); err == nil {
		h.notifier.NotifyInviteReceived(r.Context(), request.OwnerEmail, user.Email, request.Date)
	} else {
		h.logger.Warn("skipping invite notification", map[string]interface{}{
			"request_id": id.String(),
			"error":      err.Error(),
		})
	}

	w.WriteHeader(http.StatusCreated)
}

// viewerGeo resolves the location and radius used for candidate filtering.
func (h *RequestHandler) viewerGeo(r *http.Request, user *models.User) (*models.GeoPoint, float64, error) {
	q := r.URL.Query()

	var location *models.GeoPoint
	if latStr, lonStr := q.Get("lat"), q.Get("lon"); latStr != "" && lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr != nil || lonErr != nil {
			return nil, 0, errInvalidCoordinates
		}
		location = &models.GeoPoint{Latitude: lat, Longitude: lon}
	}

	radius := float64(0)
	if radiusStr := q.Get("radius_miles"); radiusStr != "" {
		parsed, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil || parsed <= 0 {
			return nil, 0, errInvalidRadius
		}
		radius = parsed
	}

	if location == nil || radius == 0 {
		profile, err := h.users.GetOrCreate(r.Context(), user.ID, user.Email, user.DisplayName)
		if err == nil {
			if location == nil {
				location = profile.Location
			}
			if radius == 0 && profile.PreferredRadiusMiles > 0 {
				radius = float64(profile.PreferredRadiusMiles)
			}
		}
	}
	if radius == 0 {
		radius = defaultRadiusMiles
	}
	return location, radius, nil
}
