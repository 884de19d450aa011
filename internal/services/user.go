package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mealbuddy/server/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, email, display_name, age, gender, dietary_restrictions,
	price_range_tier, preferred_radius_miles, latitude, longitude, created_at, updated_at`

type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

// GetOrCreate returns the stored profile for the identity, creating the row
// on first access. Identity attributes (email, display name) come from the
// external identity provider and are treated as authoritative.
func (s *UserService) GetOrCreate(ctx context.Context, id uuid.UUID, email, displayName string) (*models.User, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, email, display_name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		id, email, displayName,
	)
	if err != nil {
		return nil, storeErr(fmt.Errorf("ensure user: %w", err))
	}

	return s.GetByID(ctx, id)
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(fmt.Errorf("get user: %w", err))
	}
	return user, nil
}

// GetPublicByEmail powers the invite-details card: the inviter's display
// name, dietary restrictions and price range shown to the request owner.
func (s *UserService) GetPublicByEmail(ctx context.Context, email string) (*models.PublicProfile, error) {
	row := s.db.QueryRow(ctx,
		`SELECT email, display_name, dietary_restrictions, price_range_tier
		 FROM users WHERE email = $1`, email)

	var p models.PublicProfile
	err := row.Scan(&p.Email, &p.DisplayName, &p.DietaryRestrictions, &p.PriceRangeTier)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(fmt.Errorf("get public profile: %w", err))
	}
	return &p, nil
}

// UpdateProfile applies the non-nil fields of params. Only the profile owner
// reaches this path; ownership is enforced at the HTTP layer.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, params models.UpdateProfileParams) (*models.User, error) {
	if params.PriceRangeTier != nil && (*params.PriceRangeTier < 1 || *params.PriceRangeTier > 3) {
		return nil, fmt.Errorf("%w: price range tier must be 1-3", ErrInvalidInput)
	}
	if params.PreferredRadiusMiles != nil && *params.PreferredRadiusMiles <= 0 {
		return nil, fmt.Errorf("%w: preferred radius must be positive", ErrInvalidInput)
	}

	var lat, lon *float64
	if params.Location != nil {
		lat = &params.Location.Latitude
		lon = &params.Location.Longitude
	}

	row := s.db.QueryRow(ctx,
		`UPDATE users SET
			display_name = COALESCE($2, display_name),
			age = COALESCE($3, age),
			gender = COALESCE($4, gender),
			dietary_restrictions = COALESCE($5, dietary_restrictions),
			price_range_tier = COALESCE($6, price_range_tier),
			preferred_radius_miles = COALESCE($7, preferred_radius_miles),
			latitude = COALESCE($8, latitude),
			longitude = COALESCE($9, longitude),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, params.DisplayName, params.Age, params.Gender, params.DietaryRestrictions,
		params.PriceRangeTier, params.PreferredRadiusMiles, lat, lon,
	)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(fmt.Errorf("update profile: %w", err))
	}
	return user, nil
}

func scanUser(row Row) (*models.User, error) {
	var u models.User
	var lat, lon *float64
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Age, &u.Gender,
		&u.DietaryRestrictions, &u.PriceRangeTier, &u.PreferredRadiusMiles,
		&lat, &lon, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		u.Location = &models.GeoPoint{Latitude: *lat, Longitude: *lon}
	}
	if u.DietaryRestrictions == nil {
		u.DietaryRestrictions = []string{}
	}
	return &u, nil
}
