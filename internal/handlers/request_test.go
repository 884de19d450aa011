package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/mealbuddy/server/internal/models"
	"github.com/mealbuddy/server/internal/services"
	"github.com/mealbuddy/server/internal/testutil"
)

func TestRequestHandler_Create(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "alex@example.com", DisplayName: "Alex"}
	requests := &mockRequestService{
		CreateFunc: func(ctx context.Context, owner *models.User, params models.CreateRequestParams) (*models.Request, error) {
			if owner.Email != user.Email {
				t.Errorf("unexpected owner: %s", owner.Email)
			}
			if params.Cuisine != "Thai" || params.Date != "2026-09-12" {
				t.Errorf("unexpected params: %+v", params)
			}
			return &models.Request{ID: uuid.New(), OwnerEmail: owner.Email, Cuisine: params.Cuisine}, nil
		},
	}
	h := NewRequestHandler(requests, &mockUserService{}, &mockNotifier{}, nil)

	rr := httptest.NewRecorder()
	h.Create(rr, authedRequest(t, user, http.MethodPost, "/api/requests", map[string]any{
		"cuisine": "Thai",
		"event":   "Dinner",
		"date":    "2026-09-12",
	}))

	testutil.AssertStatusCode(t, rr, http.StatusCreated)
}

func TestRequestHandler_Create_InvalidParams(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "alex@example.com"}
	requests := &mockRequestService{
		CreateFunc: func(ctx context.Context, owner *models.User, params models.CreateRequestParams) (*models.Request, error) {
			return nil, services.ErrInvalidInput
		},
	}
	h := NewRequestHandler(requests, &mockUserService{}, &mockNotifier{}, nil)

	rr := httptest.NewRecorder()
	h.Create(rr, authedRequest(t, user, http.MethodPost, "/api/requests", map[string]any{}))

	testutil.AssertStatusCode(t, rr, http.StatusBadRequest)
}

func TestRequestHandler_ListCandidates_ExcludesOwnRequests(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "alex@example.com"}
	requests := &mockRequestService{
		ListCandidatesFunc: func(ctx context.Context, filters models.RequestFilters, loc *models.GeoPoint, radius float64) ([]*models.Request, error) {
			if filters.Date != "2026-09-12" {
				t.Errorf("unexpected date filter: %q", filters.Date)
			}
			if loc == nil || loc.Latitude != 37.7749 {
				t.Errorf("unexpected viewer location: %+v", loc)
			}
			if radius != 5 {
				t.Errorf("unexpected radius: %v", radius)
			}
			return []*models.Request{
				{ID: uuid.New(), OwnerEmail: "alex@example.com"},
				{ID: uuid.New(), OwnerEmail: "other@example.com"},
			}, nil
		},
	}
	h := NewRequestHandler(requests, &mockUserService{}, &mockNotifier{}, nil)

	rr := httptest.NewRecorder()
	h.ListCandidates(rr, authedRequest(t, user, http.MethodGet,
		"/api/requests?date=2026-09-12&lat=37.7749&lon=-122.4194&radius_miles=5", nil))

	testutil.AssertStatusCode(t, rr, http.StatusOK)
	var result []map[string]any
	if err := jsonDecode(rr, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected own request excluded, got %d rows", len(result))
	}
	if result[0]["owner_email"] != "other@example.com" {
		t.Fatalf("unexpected candidate: %v", result[0])
	}
}

func TestRequestHandler_ListCandidates_ProfileFallback(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "alex@example.com"}
	users := &mockUserService{
		GetOrCreateFunc: func(ctx context.Context, id uuid.UUID, email, displayName string) (*models.User, error) {
			return &models.User{
				ID: id, Email: email,
				Location:             &models.GeoPoint{Latitude: 40.7128, Longitude: -74.006},
				PreferredRadiusMiles: 15,
			}, nil
		},
	}
	requests := &mockRequestService{
		ListCandidatesFunc: func(ctx context.Context, filters models.RequestFilters, loc *models.GeoPoint, radius float64) ([]*models.Request, error) {
			if loc == nil || loc.Latitude != 40.7128 {
				t.Errorf("expected profile location, got %+v", loc)
			}
			if radius != 15 {
				t.Errorf("expected profile radius, got %v", radius)
			}
			return []*models.Request{}, nil
		},
	}
	h := NewRequestHandler(requests, users, &mockNotifier{}, nil)

	rr := httptest.NewRecorder()
	h.ListCandidates(rr, authedRequest(t, user, http.MethodGet, "/api/requests?date=2026-09-12", nil))
	testutil.AssertStatusCode(t, rr, http.StatusOK)
}

func TestRequestHandler_ListCandidates_BadRadius(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "alex@example.com"}
	h := NewRequestHandler(&mockRequestService{}, &mockUserService{}, &mockNotifier{}, nil)

	rr := httptest.NewRecorder()
	h.ListCandidates(rr, authedRequest(t, user, http.MethodGet,
		"/api/requests?date=2026-09-12&radius_miles=-2", nil))
	testutil.AssertStatusCode(t, rr, http.StatusBadRequest)
}

func TestRequestHandler_CreateInvite_NotifiesOwner(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "inviter@example.com"}
	requestID := uuid.New()
	notifier := &mockNotifier{}
	requests := &mockRequestService{
		AppendInviteFunc: func(ctx context.Context, id uuid.UUID, inviterEmail, message string) error {
			if id != requestID || inviterEmail != user.Email || message != "join me" {
				t.Errorf("unexpected invite args: %s %s %q", id, inviterEmail, message)
			}
			return nil
		},
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Request, error) {
			return &models.Request{ID: id, OwnerEmail: "owner@example.com", Date: "2026-09-12"}, nil
		},
	}
	h := NewRequestHandler(requests, &mockUserService{}, notifier, nil)

	req := authedRequest(t, user, http.MethodPost, "/api/requests/"+requestID.String()+"/invites",
		map[string]string{"message": "join me"})
	req.SetPathValue("id", requestID.String())
	rr := httptest.NewRecorder()
	h.CreateInvite(rr, req)

	testutil.AssertStatusCode(t, rr, http.StatusCreated)
	if len(notifier.inviteCalls) != 1 || notifier.inviteCalls[0] != "owner@example.com" {
		t.Fatalf("expected owner notification, got %v", notifier.inviteCalls)
	}
}

func TestRequestHandler_CreateInvite_Duplicate(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "inviter@example.com"}
	requestID := uuid.New()
	notifier := &mockNotifier{}
	requests := &mockRequestService{
		AppendInviteFunc: func(ctx context.Context, id uuid.UUID, inviterEmail, message string) error {
			return services.ErrDuplicateInvite
		},
	}
	h := NewRequestHandler(requests, &mockUserService{}, notifier, nil)

	req := authedRequest(t, user, http.MethodPost, "/api/requests/"+requestID.String()+"/invites",
		map[string]string{"message": "again"})
	req.SetPathValue("id", requestID.String())
	rr := httptest.NewRecorder()
	h.CreateInvite(rr, req)

	testutil.AssertStatusCode(t, rr, http.StatusConflict)
	if len(notifier.inviteCalls) != 0 {
		t.Fatal("duplicate invite must not notify")
	}
}

func TestRequestHandler_Get_BadID(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "alex@example.com"}
	h := NewRequestHandler(&mockRequestService{}, &mockUserService{}, &mockNotifier{}, nil)

	req := authedRequest(t, user, http.MethodGet, "/api/requests/nope", nil)
	req.SetPathValue("id", "nope")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	testutil.AssertStatusCode(t, rr, http.StatusBadRequest)
}
