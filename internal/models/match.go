package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus describes the owner-side pairing state of a request with
// respect to one candidate invitee.
type MatchStatus string

const (
	StatusNotMatched           MatchStatus = "not_matched"
	StatusMatchedWithCandidate MatchStatus = "matched_with_candidate"
	StatusMatchedWithOther     MatchStatus = "matched_with_other"
)

// Match is an accepted pairing between a request owner and one invitee.
// For a given (request, requester email) pair at most one live match exists.
type Match struct {
	ID             uuid.UUID `json:"id"`
	RequestID      uuid.UUID `json:"request_id"`
	RequesterEmail string    `json:"requester_email"`
	InviteeEmail   string    `json:"invitee_email"`
	CreatedAt      time.Time `json:"created_at"`
}

// MatchWithCounterpart is a match decorated with the other participant's
// email relative to the viewing user, for the chat list.
type MatchWithCounterpart struct {
	Match
	CounterpartEmail string `json:"counterpart_email"`
}

// Message is a single chat entry, immutable once written.
type Message struct {
	ID          uuid.UUID `json:"id"`
	MatchID     uuid.UUID `json:"match_id"`
	SenderEmail string    `json:"sender_email"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}
