package models

import (
	"time"

	"github.com/google/uuid"
)

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Request is a posted intent to meet for a meal or activity. Its attributes
// are frozen at creation; only the invite list grows afterwards.
type Request struct {
	ID            uuid.UUID `json:"id"`
	OwnerUserID   uuid.UUID `json:"owner_user_id"`
	OwnerEmail    string    `json:"owner_email"`
	OwnerUsername string    `json:"owner_username"`
	Cuisine       string    `json:"cuisine"`
	Event         string    `json:"event"`
	AgeOfOwner    *int      `json:"age_of_owner,omitempty"`
	GenderOfOwner *string   `json:"gender_of_owner,omitempty"`
	Blurb         string    `json:"blurb"`
	Date          string    `json:"date"`
	Location      *GeoPoint `json:"location,omitempty"`
	InvitesSent   []Invite  `json:"invites_sent"`
	CreatedAt     time.Time `json:"created_at"`
}

// Invite is a proposal from one user to the owner of a request. At most one
// invite per inviter email exists on any request.
type Invite struct {
	InviterEmail string    `json:"inviter_email"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateRequestParams struct {
	Cuisine  string    `json:"cuisine"`
	Event    string    `json:"event"`
	Blurb    string    `json:"blurb"`
	Date     string    `json:"date"`
	Location *GeoPoint `json:"location"`
}

// RequestFilters are the candidate-listing filters. Date is mandatory; the
// others are optional equality filters where nil means "Any".
type RequestFilters struct {
	Date     string
	Cuisine  *string
	Event    *string
	Gender   *string
	AgeRange *string
}
