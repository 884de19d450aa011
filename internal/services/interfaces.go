package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/mealbuddy/server/internal/models"
)

// UserServiceInterface defines the contract for profile operations.
type UserServiceInterface interface {
	GetOrCreate(ctx context.Context, id uuid.UUID, email, displayName string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetPublicByEmail(ctx context.Context, email string) (*models.PublicProfile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, params models.UpdateProfileParams) (*models.User, error)
}

// RequestServiceInterface defines the contract for meal request operations.
type RequestServiceInterface interface {
	Create(ctx context.Context, owner *models.User, params models.CreateRequestParams) (*models.Request, error)
	ListCandidates(ctx context.Context, filters models.RequestFilters, viewerLocation *models.GeoPoint, radiusMiles float64) ([]*models.Request, error)
	ListOwn(ctx context.Context, ownerEmail string) ([]*models.Request, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	AppendInvite(ctx context.Context, requestID uuid.UUID, inviterEmail, message string) error
}

// MatchServiceInterface defines the contract for the invite/match engine.
type MatchServiceInterface interface {
	EvaluateStatus(ctx context.Context, requestID uuid.UUID, ownerEmail, candidateEmail string) (models.MatchStatus, error)
	Create(ctx context.Context, requestID uuid.UUID, ownerEmail, candidateEmail string) (*models.Match, error)
	Delete(ctx context.Context, requestID uuid.UUID, ownerEmail, candidateEmail string) error
	Unmatch(ctx context.Context, matchID uuid.UUID, callerEmail string) error
	GetByID(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
	ListForUser(ctx context.Context, email string) ([]models.MatchWithCounterpart, error)
}

// ChatServiceInterface defines the contract for the per-match append log.
type ChatServiceInterface interface {
	Append(ctx context.Context, matchID uuid.UUID, senderEmail, text string) error
	List(ctx context.Context, matchID uuid.UUID) ([]models.Message, error)
	Subscribe(ctx context.Context, matchID uuid.UUID, onEmpty func(context.Context, uuid.UUID)) (<-chan []models.Message, func(), error)
}

// RecommenderInterface defines the contract for the external suggestion API.
type RecommenderInterface interface {
	Places(ctx context.Context, q SuggestionQuery) []models.Place
	Events(ctx context.Context, q SuggestionQuery) []models.Event
}

// EmailNotifierInterface defines the contract for outbound notifications.
type EmailNotifierInterface interface {
	NotifyInviteReceived(ctx context.Context, ownerEmail, inviterEmail, requestDate string)
	NotifyMatchCreated(ctx context.Context, inviteeEmail, ownerName string)
}

// IdentityProvider is the external identity collaborator: it resolves an
// opaque session token to the current user, or ErrUnauthenticated.
type IdentityProvider interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}
