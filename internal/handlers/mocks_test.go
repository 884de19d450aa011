package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/mealbuddy/server/internal/models"
	"github.com/mealbuddy/server/internal/services"
)

type mockUserService struct {
	GetOrCreateFunc      func(ctx context.Context, id uuid.UUID, email, displayName string) (*models.User, error)
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetPublicByEmailFunc func(ctx context.Context, email string) (*models.PublicProfile, error)
	UpdateProfileFunc    func(ctx context.Context, id uuid.UUID, params models.UpdateProfileParams) (*models.User, error)
}

func (m *mockUserService) GetOrCreate(ctx context.Context, id uuid.UUID, email, displayName string) (*models.User, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, id, email, displayName)
	}
	return &models.User{ID: id, Email: email, DisplayName: displayName}, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &models.User{ID: id}, nil
}

func (m *mockUserService) GetPublicByEmail(ctx context.Context, email string) (*models.PublicProfile, error) {
	if m.GetPublicByEmailFunc != nil {
		return m.GetPublicByEmailFunc(ctx, email)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, params models.UpdateProfileParams) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, params)
	}
	return nil, services.ErrUserNotFound
}

type mockRequestService struct {
	CreateFunc         func(ctx context.Context, owner *models.User, params models.CreateRequestParams) (*models.Request, error)
	ListCandidatesFunc func(ctx context.Context, filters models.RequestFilters, viewerLocation *models.GeoPoint, radiusMiles float64) ([]*models.Request, error)
	ListOwnFunc        func(ctx context.Context, ownerEmail string) ([]*models.Request, error)
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.Request, error)
	AppendInviteFunc   func(ctx context.Context, requestID uuid.UUID, inviterEmail, message string) error
}

func (m *mockRequestService) Create(ctx context.Context, owner *models.User, params models.CreateRequestParams) (*models.Request, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, owner, params)
	}
	return nil, services.ErrInvalidInput
}

func (m *mockRequestService) ListCandidates(ctx context.Context, filters models.RequestFilters, viewerLocation *models.GeoPoint, radiusMiles float64) ([]*models.Request, error) {
	if m.ListCandidatesFunc != nil {
		return m.ListCandidatesFunc(ctx, filters, viewerLocation, radiusMiles)
	}
	return []*models.Request{}, nil
}

func (m *mockRequestService) ListOwn(ctx context.Context, ownerEmail string) ([]*models.Request, error) {
	if m.ListOwnFunc != nil {
		return m.ListOwnFunc(ctx, ownerEmail)
	}
	return []*models.Request{}, nil
}

func (m *mockRequestService) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, services.ErrRequestNotFound
}

func (m *mockRequestService) AppendInvite(ctx context.Context, requestID uuid.UUID, inviterEmail, message string) error {
	if m.AppendInviteFunc != nil {
		return m.AppendInviteFunc(ctx, requestID, inviterEmail, message)
	}
	return nil
}

type mockMatchService struct {
	EvaluateStatusFunc func(ctx context.Context, requestID uuid.UUID, ownerEmail, candidateEmail string) (models.MatchStatus, error)
	CreateFunc         func(ctx context.Context, requestID uuid.UUID, ownerEmail, candidateEmail string) (*models.Match, error)
	DeleteFunc         func(ctx context.Context, requestID uuid.UUID, ownerEmail, candidateEmail string) error
	UnmatchFunc        func(ctx context.Context, matchID uuid.UUID, callerEmail string) error
	GetByIDFunc        func(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
	ListForUserFunc    func(ctx context.Context, email string) ([]models.MatchWithCounterpart, error)
}

func (m *mockMatchService) EvaluateStatus(ctx context.Context, requestID uuid.UUID, ownerEmail, candidateEmail string) (models.MatchStatus, error) {
	if m.EvaluateStatusFunc != nil {
		return m.EvaluateStatusFunc(ctx, requestID, ownerEmail, candidateEmail)
	}
	return models.StatusNotMatched, nil
}

func (m *mockMatchService) Create(ctx context.Context, requestID uuid.UUID, ownerEmail, candidateEmail string) (*models.Match, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, requestID, ownerEmail, candidateEmail)
	}
	return nil, services.ErrRequestNotFound
}

func (m *mockMatchService) Delete(ctx context.Context, requestID uuid.UUID, ownerEmail, candidateEmail string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, requestID, ownerEmail, candidateEmail)
	}
	return nil
}

func (m *mockMatchService) Unmatch(ctx context.Context, matchID uuid.UUID, callerEmail string) error {
	if m.UnmatchFunc != nil {
		return m.UnmatchFunc(ctx, matchID, callerEmail)
	}
	return nil
}

func (m *mockMatchService) GetByID(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, matchID)
	}
	return nil, services.ErrMatchNotFound
}

func (m *mockMatchService) ListForUser(ctx context.Context, email string) ([]models.MatchWithCounterpart, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, email)
	}
	return []models.MatchWithCounterpart{}, nil
}

type mockChatService struct {
	AppendFunc    func(ctx context.Context, matchID uuid.UUID, senderEmail, text string) error
	ListFunc      func(ctx context.Context, matchID uuid.UUID) ([]models.Message, error)
	SubscribeFunc func(ctx context.Context, matchID uuid.UUID, onEmpty func(context.Context, uuid.UUID)) (<-chan []models.Message, func(), error)
}

func (m *mockChatService) Append(ctx context.Context, matchID uuid.UUID, senderEmail, text string) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, matchID, senderEmail, text)
	}
	return nil
}

func (m *mockChatService) List(ctx context.Context, matchID uuid.UUID) ([]models.Message, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, matchID)
	}
	return []models.Message{}, nil
}

func (m *mockChatService) Subscribe(ctx context.Context, matchID uuid.UUID, onEmpty func(context.Context, uuid.UUID)) (<-chan []models.Message, func(), error) {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, matchID, onEmpty)
	}
	ch := make(chan []models.Message)
	close(ch)
	return ch, func() {}, nil
}

type mockRecommender struct {
	PlacesFunc func(ctx context.Context, q services.SuggestionQuery) []models.Place
	EventsFunc func(ctx context.Context, q services.SuggestionQuery) []models.Event
}

func (m *mockRecommender) Places(ctx context.Context, q services.SuggestionQuery) []models.Place {
	if m.PlacesFunc != nil {
		return m.PlacesFunc(ctx, q)
	}
	return []models.Place{}
}

func (m *mockRecommender) Events(ctx context.Context, q services.SuggestionQuery) []models.Event {
	if m.EventsFunc != nil {
		return m.EventsFunc(ctx, q)
	}
	return []models.Event{}
}

type mockNotifier struct {
	inviteCalls []string
	matchCalls  []string
}

func (m *mockNotifier) NotifyInviteReceived(ctx context.Context, ownerEmail, inviterEmail, requestDate string) {
	m.inviteCalls = append(m.inviteCalls, ownerEmail)
}

func (m *mockNotifier) NotifyMatchCreated(ctx context.Context, inviteeEmail, ownerName string) {
	m.matchCalls = append(m.matchCalls, inviteeEmail)
}
