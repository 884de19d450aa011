package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mealbuddy/server/internal/logging"
	"github.com/mealbuddy/server/internal/models"
)

var ErrEmptyMessage = errors.New("message text is empty")

// ChatService is the per-match append log. Messages are individual rows, so
// an append is a store-native atomic add rather than a whole-list overwrite,
// and concurrent senders cannot clobber each other.
type ChatService struct {
	db      DB
	broker  Broker
	logger  *logging.Logger
	metrics ChatMetrics
}

type ChatMetrics interface {
	RecordMessageSent()
}

func NewChatService(db DB, broker Broker, logger *logging.Logger, metrics ChatMetrics) *ChatService {
	if logger == nil {
		logger = logging.Default
	}
	return &ChatService{db: db, broker: broker, logger: logger, metrics: metrics}
}

func chatChannel(matchID uuid.UUID) string {
	return "chat:" + matchID.String()
}

// Append writes one message and signals subscribers. The insert is the
// durable step; a failed publish only delays delivery until the next
// snapshot, so it is logged and swallowed.
func (s *ChatService) Append(ctx context.Context, matchID uuid.UUID, senderEmail, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	tag, err := s.db.Exec(ctx,
		`INSERT INTO messages (match_id, sender_email, text)
		 SELECT $1, $2, $3
		 WHERE EXISTS (SELECT 1 FROM matches WHERE id = $1)`,
		matchID, senderEmail, text,
	)
	if err != nil {
		if isPgCode(err, pgForeignKeyViolation) {
			return ErrMatchNotFound
		}
		return storeErr(fmt.Errorf("append message: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrMatchNotFound
	}

	if s.metrics != nil {
		s.metrics.RecordMessageSent()
	}

	if err := s.broker.Publish(ctx, chatChannel(matchID), "append"); err != nil {
		s.logger.Warn("chat publish failed", map[string]interface{}{
			"match_id": matchID.String(),
			"error":    err.Error(),
		})
	}
	return nil
}

// List returns the full ordered message log, oldest first.
func (s *ChatService) List(ctx context.Context, matchID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, match_id, sender_email, text, created_at
		 FROM messages
		 WHERE match_id = $1
		 ORDER BY created_at ASC, id ASC`,
		matchID,
	)
	if err != nil {
		return nil, storeErr(fmt.Errorf("list messages: %w", err))
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.MatchID, &m.SenderEmail, &m.Text, &m.Timestamp); err != nil {
			s.logger.Warn("skipping malformed message row", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(fmt.Errorf("iterate messages: %w", err))
	}
	return messages, nil
}

// Subscribe delivers the current ordered message list immediately and again
// after every append, as full snapshots. The returned cancel func releases
// the broker subscription; the stream channel is closed afterwards.
//
// If onEmpty is non-nil it fires at most once per subscription, the first
// time an empty snapshot is delivered. The log is append-only, so an empty
// state can never recur once a message exists.
func (s *ChatService) Subscribe(ctx context.Context, matchID uuid.UUID, onEmpty func(context.Context, uuid.UUID)) (<-chan []models.Message, func(), error) {
	// Reject subscriptions to matches that do not exist (or were unmatched).
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, matchID,
	).Scan(&exists)
	if err != nil {
		return nil, nil, storeErr(fmt.Errorf("check match: %w", err))
	}
	if !exists {
		return nil, nil, ErrMatchNotFound
	}

	sub, err := s.broker.Subscribe(ctx, chatChannel(matchID))
	if err != nil {
		return nil, nil, storeErr(fmt.Errorf("subscribe: %w", err))
	}

	out := make(chan []models.Message, 1)
	done := make(chan struct{})

	emptySeen := false
	deliver := func() {
		snapshot, err := s.List(ctx, matchID)
		if err != nil {
			s.logger.Warn("snapshot load failed", map[string]interface{}{
				"match_id": matchID.String(),
				"error":    err.Error(),
			})
			return
		}
		if len(snapshot) == 0 && !emptySeen {
			emptySeen = true
			if onEmpty != nil {
				onEmpty(ctx, matchID)
			}
		}
		// Keep only the latest snapshot if the receiver lags; each delivery
		// is complete, so intermediate states are safe to drop.
		for {
			select {
			case out <- snapshot:
				return
			case <-done:
				return
			default:
				select {
				case <-out:
				default:
				}
			}
		}
	}

	go func() {
		defer close(out)
		deliver()
		for {
			select {
			case _, ok := <-sub.Signals():
				if !ok {
					return
				}
				deliver()
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
		if err := sub.Close(); err != nil {
			s.logger.Warn("closing chat subscription", map[string]interface{}{
				"match_id": matchID.String(),
				"error":    err.Error(),
			})
		}
	}
	return out, cancel, nil
}
