package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mealbuddy/server/internal/logging"
	"github.com/mealbuddy/server/internal/models"
)

var (
	ErrAlreadyMatched  = errors.New("request already has a live match")
	ErrMatchNotFound   = errors.New("match not found")
	ErrInviteNotFound  = errors.New("no invite from that user on this request")
	ErrNotRequestOwner = errors.New("only the request owner can accept an invite")
	ErrNotParticipant  = errors.New("user is not part of this match")
)

const matchColumns = `id, request_id, requester_email, invitee_email, created_at`

// MatchService owns the invite-to-match state machine. For any
// (request, requester email) pair at most one live match exists; the
// guarantee is enforced by a conditional insert against the store's unique
// index, not by a check-then-act read.
type MatchService struct {
	db      DB
	logger  *logging.Logger
	metrics MatchMetrics
}

type MatchMetrics interface {
	RecordMatchCreated()
	RecordMatchConflict()
	RecordUnmatch()
}

func NewMatchService(db DB, logger *logging.Logger, metrics MatchMetrics) *MatchService {
	if logger == nil {
		logger = logging.Default
	}
	return &MatchService{db: db, logger: logger, metrics: metrics}
}

// EvaluateStatus reports the owner-side pairing state of the request with
// respect to candidateEmail, as of this call. Callers poll it and tolerate
// staleness between polls.
func (s *MatchService) EvaluateStatus(ctx context.Context, requestID uuid.UUID, ownerEmail, candidateEmail string) (models.MatchStatus, error) {
	var inviteeEmail string
	err := s.db.QueryRow(ctx,
		`SELECT invitee_email FROM matches WHERE request_id = $1 AND requester_email = $2`,
		requestID, ownerEmail,
	).Scan(&inviteeEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.StatusNotMatched, nil
	}
	if err != nil {
		return "", storeErr(fmt.Errorf("evaluate match status: %w", err))
	}

	if inviteeEmail == candidateEmail {
		return models.StatusMatchedWithCandidate, nil
	}
	return models.StatusMatchedWithOther, nil
}

// Create accepts candidateEmail's invite on the request, producing a match
// with an empty message log. The write either fully succeeds or leaves no
// trace: of two concurrent calls for the same (request, owner), exactly one
// insert lands and the other observes ErrAlreadyMatched.
func (s *MatchService) Create(ctx context.Context, requestID uuid.UUID, ownerEmail, candidateEmail string) (*models.Match, error) {
	if ownerEmail == candidateEmail {
		return nil, fmt.Errorf("%w: cannot match with yourself", ErrInvalidInput)
	}

	var storedOwner string
	err := s.db.QueryRow(ctx,
		`SELECT owner_email FROM requests WHERE id = $1`, requestID,
	).Scan(&storedOwner)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, storeErr(fmt.Errorf("load request: %w", err))
	}
	if storedOwner != ownerEmail {
		return nil, ErrNotRequestOwner
	}

	var exists bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM invites WHERE request_id = $1 AND inviter_email = $2)`,
		requestID, candidateEmail,
	).Scan(&exists)
	if err != nil {
		return nil, storeErr(fmt.Errorf("check invite: %w", err))
	}
	if !exists {
		return nil, ErrInviteNotFound
	}

	// The unique index on (request_id, requester_email) is the arbiter of
	// the exclusivity invariant; a conflicting concurrent insert returns no
	// row here rather than a duplicate match.
	row := s.db.QueryRow(ctx,
		`INSERT INTO matches (request_id, requester_email, invitee_email)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (request_id, requester_email) DO NOTHING
		 RETURNING `+matchColumns,
		requestID, ownerEmail, candidateEmail,
	)

	match, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if s.metrics != nil {
			s.metrics.RecordMatchConflict()
		}
		return nil, ErrAlreadyMatched
	}
	if err != nil {
		if isPgCode(err, pgUniqueViolation) {
			if s.metrics != nil {
				s.metrics.RecordMatchConflict()
			}
			return nil, ErrAlreadyMatched
		}
		return nil, storeErr(fmt.Errorf("insert match: %w", err))
	}

	if s.metrics != nil {
		s.metrics.RecordMatchCreated()
	}
	s.logger.Info("match created", map[string]interface{}{
		"match_id":   match.ID.String(),
		"request_id": requestID.String(),
	})
	return match, nil
}

// Delete removes the live match for the exact triple. Messages cascade with
// the match row; the deletion is all-or-nothing.
func (s *MatchService) Delete(ctx context.Context, requestID uuid.UUID, ownerEmail, candidateEmail string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM matches
		 WHERE request_id = $1 AND requester_email = $2 AND invitee_email = $3`,
		requestID, ownerEmail, candidateEmail,
	)
	if err != nil {
		return storeErr(fmt.Errorf("delete match: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrMatchNotFound
	}

	if s.metrics != nil {
		s.metrics.RecordUnmatch()
	}
	s.logger.Info("match deleted", map[string]interface{}{
		"request_id": requestID.String(),
	})
	return nil
}

// Unmatch deletes a match by id on behalf of either participant. The
// participant check and the delete run in one transaction so a concurrent
// unmatch cannot slip between them.
func (s *MatchService) Unmatch(ctx context.Context, matchID uuid.UUID, callerEmail string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return storeErr(fmt.Errorf("begin unmatch: %w", err))
	}
	defer tx.Rollback(ctx)

	match, err := scanMatch(tx.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1 FOR UPDATE`, matchID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMatchNotFound
	}
	if err != nil {
		return storeErr(fmt.Errorf("load match: %w", err))
	}
	if match.RequesterEmail != callerEmail && match.InviteeEmail != callerEmail {
		return ErrNotParticipant
	}

	if _, err := tx.Exec(ctx, `DELETE FROM matches WHERE id = $1`, matchID); err != nil {
		return storeErr(fmt.Errorf("delete match: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return storeErr(fmt.Errorf("commit unmatch: %w", err))
	}

	if s.metrics != nil {
		s.metrics.RecordUnmatch()
	}
	s.logger.Info("match deleted", map[string]interface{}{
		"match_id": matchID.String(),
	})
	return nil
}

func (s *MatchService) GetByID(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, matchID)

	match, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, storeErr(fmt.Errorf("get match: %w", err))
	}
	return match, nil
}

// ListForUser returns every live match the user participates in, on either
// side, decorated with the counterpart's email for the chat list.
func (s *MatchService) ListForUser(ctx context.Context, email string) ([]models.MatchWithCounterpart, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+matchColumns+` FROM matches
		 WHERE requester_email = $1 OR invitee_email = $1
		 ORDER BY created_at DESC`,
		email,
	)
	if err != nil {
		return nil, storeErr(fmt.Errorf("list matches: %w", err))
	}
	defer rows.Close()

	matches := []models.MatchWithCounterpart{}
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			s.logger.Warn("skipping malformed match row", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		counterpart := match.RequesterEmail
		if counterpart == email {
			counterpart = match.InviteeEmail
		}
		matches = append(matches, models.MatchWithCounterpart{
			Match:            *match,
			CounterpartEmail: counterpart,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(fmt.Errorf("iterate matches: %w", err))
	}
	return matches, nil
}

func scanMatch(row Row) (*models.Match, error) {
	var m models.Match
	err := row.Scan(&m.ID, &m.RequestID, &m.RequesterEmail, &m.InviteeEmail, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
