package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                   uuid.UUID `json:"id"`
	Email                string    `json:"email"`
	DisplayName          string    `json:"display_name"`
	Age                  *int      `json:"age,omitempty"`
	Gender               *string   `json:"gender,omitempty"`
	DietaryRestrictions  []string  `json:"dietary_restrictions"`
	PriceRangeTier       int       `json:"price_range_tier"`
	PreferredRadiusMiles int       `json:"preferred_radius_miles"`
	Location             *GeoPoint `json:"location,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// PublicProfile is the subset of a user shown to other users, e.g. on the
// invite details card.
type PublicProfile struct {
	Email               string   `json:"email"`
	DisplayName         string   `json:"display_name"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	PriceRangeTier      int      `json:"price_range_tier"`
}

type UpdateProfileParams struct {
	DisplayName          *string   `json:"display_name"`
	Age                  *int      `json:"age"`
	Gender               *string   `json:"gender"`
	DietaryRestrictions  []string  `json:"dietary_restrictions"`
	PriceRangeTier       *int      `json:"price_range_tier"`
	PreferredRadiusMiles *int      `json:"preferred_radius_miles"`
	Location             *GeoPoint `json:"location"`
}
