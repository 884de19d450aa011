package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mealbuddy/server/internal/models"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// SessionStore resolves an opaque key to a stored value. Sessions are
// provisioned by the external identity system; this service only reads them.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
}

// RedisSessionStore reads sessions from Redis.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", storeErr(fmt.Errorf("read session: %w", err))
	}
	return val, nil
}

// SessionIdentity implements the identity collaborator contract: it maps a
// bearer token to the stable user id, email and display name recorded by
// the external identity provider.
type SessionIdentity struct {
	sessions SessionStore
}

func NewSessionIdentity(sessions SessionStore) *SessionIdentity {
	return &SessionIdentity{sessions: sessions}
}

type sessionRecord struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
}

// CurrentUser resolves the token or fails with ErrUnauthenticated. The
// returned user carries identity attributes only; the stored profile row is
// loaded (and lazily created) separately.
func (s *SessionIdentity) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	val, err := s.sessions.Get(ctx, sessionKey(token))
	if err != nil {
		return nil, err
	}

	var rec sessionRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("%w: malformed session record", ErrUnauthenticated)
	}
	if rec.UserID == uuid.Nil || rec.Email == "" {
		return nil, fmt.Errorf("%w: incomplete session record", ErrUnauthenticated)
	}

	return &models.User{
		ID:          rec.UserID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
	}, nil
}

func sessionKey(token string) string {
	hash := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(hash[:])
}
