package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mealbuddy/server/internal/geo"
	"github.com/mealbuddy/server/internal/logging"
	"github.com/mealbuddy/server/internal/models"
)

var (
	ErrRequestNotFound  = errors.New("request not found")
	ErrDuplicateInvite  = errors.New("invite already sent")
	ErrCannotInviteSelf = errors.New("cannot invite yourself to your own request")
)

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const requestColumns = `id, owner_user_id, owner_email, owner_username, cuisine, event,
	age_of_owner, gender_of_owner, blurb, date, latitude, longitude, created_at`

type RequestService struct {
	db      DB
	logger  *logging.Logger
	metrics RequestMetrics
}

// RequestMetrics is the slice of the metrics collector this service feeds.
type RequestMetrics interface {
	RecordRequestCreated()
	RecordInviteSent()
	RecordDuplicateInvite()
}

func NewRequestService(db DB, logger *logging.Logger, metrics RequestMetrics) *RequestService {
	if logger == nil {
		logger = logging.Default
	}
	return &RequestService{db: db, logger: logger, metrics: metrics}
}

// Create stores a new request for owner. Location is best-effort: a nil
// location is stored as NULL and the request is then invisible to
// radius-filtered listings.
func (s *RequestService) Create(ctx context.Context, owner *models.User, params models.CreateRequestParams) (*models.Request, error) {
	if owner == nil || owner.Email == "" {
		return nil, fmt.Errorf("%w: owner identity missing", ErrInvalidInput)
	}
	if params.Cuisine == "" {
		return nil, fmt.Errorf("%w: cuisine is required", ErrInvalidInput)
	}
	if params.Event == "" {
		return nil, fmt.Errorf("%w: event is required", ErrInvalidInput)
	}
	if !dateFormat.MatchString(params.Date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	var lat, lon *float64
	if params.Location != nil {
		lat = &params.Location.Latitude
		lon = &params.Location.Longitude
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO requests (owner_user_id, owner_email, owner_username, cuisine, event,
			age_of_owner, gender_of_owner, blurb, date, latitude, longitude)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+requestColumns,
		owner.ID, owner.Email, owner.DisplayName, params.Cuisine, params.Event,
		owner.Age, owner.Gender, params.Blurb, params.Date, lat, lon,
	)

	req, err := scanRequest(row)
	if err != nil {
		return nil, storeErr(fmt.Errorf("insert request: %w", err))
	}
	req.InvitesSent = []models.Invite{}

	if s.metrics != nil {
		s.metrics.RecordRequestCreated()
	}
	s.logger.Info("request created", map[string]interface{}{
		"request_id": req.ID.String(),
		"date":       req.Date,
	})
	return req, nil
}

// ListCandidates returns requests matching the equality filters, then applies
// the in-process age-range and radius predicates. Requests without a stored
// location are excluded. Order is store order; re-invoking re-queries from
// scratch.
func (s *RequestService) ListCandidates(ctx context.Context, filters models.RequestFilters, viewerLocation *models.GeoPoint, radiusMiles float64) ([]*models.Request, error) {
	if filters.Date == "" {
		return nil, fmt.Errorf("%w: date filter is required", ErrInvalidInput)
	}
	if viewerLocation == nil {
		return nil, fmt.Errorf("%w: viewer location unresolved", ErrInvalidInput)
	}

	sql := `SELECT ` + requestColumns + ` FROM requests WHERE date = $1`
	args := []any{filters.Date}

	appendFilter := func(column string, filter *string) {
		if filter != nil && *filter != "" && *filter != "Any" {
			args = append(args, *filter)
			sql += fmt.Sprintf(" AND %s = $%d", column, len(args))
		}
	}
	appendFilter("cuisine", filters.Cuisine)
	appendFilter("event", filters.Event)
	appendFilter("gender_of_owner", filters.Gender)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr(fmt.Errorf("query candidate requests: %w", err))
	}
	defer rows.Close()

	candidates := []*models.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			// One malformed document must not fail the whole listing.
			s.logger.Warn("skipping malformed request row", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}

		if filters.AgeRange != nil && *filters.AgeRange != "" && *filters.AgeRange != "Any" {
			if req.AgeOfOwner == nil || !geo.MatchesAgeRange(*req.AgeOfOwner, *filters.AgeRange) {
				continue
			}
		}
		if req.Location == nil {
			continue
		}
		if !geo.WithinRadius(viewerLocation.Latitude, viewerLocation.Longitude,
			req.Location.Latitude, req.Location.Longitude, radiusMiles) {
			continue
		}

		candidates = append(candidates, req)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(fmt.Errorf("iterate candidate requests: %w", err))
	}

	if err := s.attachInvites(ctx, candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// ListOwn returns the owner's requests with their invites attached.
func (s *RequestService) ListOwn(ctx context.Context, ownerEmail string) ([]*models.Request, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE owner_email = $1 ORDER BY created_at DESC`,
		ownerEmail,
	)
	if err != nil {
		return nil, storeErr(fmt.Errorf("query own requests: %w", err))
	}
	defer rows.Close()

	requests := []*models.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			s.logger.Warn("skipping malformed request row", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(fmt.Errorf("iterate own requests: %w", err))
	}

	if err := s.attachInvites(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *RequestService) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)

	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, storeErr(fmt.Errorf("get request: %w", err))
	}

	if err := s.attachInvites(ctx, []*models.Request{req}); err != nil {
		return nil, err
	}
	return req, nil
}

// AppendInvite records an invite from inviterEmail on the request. The
// append is a single conditional insert guarded by the store's unique index
// on (request_id, inviter_email), so concurrent inviters cannot lose
// updates and a repeat invite from the same address leaves exactly one
// entry. The duplicate case is surfaced as ErrDuplicateInvite rather than a
// silent no-op so the caller can tell the user.
func (s *RequestService) AppendInvite(ctx context.Context, requestID uuid.UUID, inviterEmail, message string) error {
	if inviterEmail == "" {
		return fmt.Errorf("%w: inviter email missing", ErrInvalidInput)
	}

	var ownerEmail string
	err := s.db.QueryRow(ctx,
		`SELECT owner_email FROM requests WHERE id = $1`, requestID,
	).Scan(&ownerEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return storeErr(fmt.Errorf("load request owner: %w", err))
	}
	if ownerEmail == inviterEmail {
		return ErrCannotInviteSelf
	}

	tag, err := s.db.Exec(ctx,
		`INSERT INTO invites (request_id, inviter_email, message)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (request_id, inviter_email) DO NOTHING`,
		requestID, inviterEmail, message,
	)
	if err != nil {
		if isPgCode(err, pgForeignKeyViolation) {
			return ErrRequestNotFound
		}
		return storeErr(fmt.Errorf("append invite: %w", err))
	}
	if tag.RowsAffected() == 0 {
		if s.metrics != nil {
			s.metrics.RecordDuplicateInvite()
		}
		return ErrDuplicateInvite
	}

	if s.metrics != nil {
		s.metrics.RecordInviteSent()
	}
	s.logger.Info("invite appended", map[string]interface{}{
		"request_id": requestID.String(),
	})
	return nil
}

// attachInvites loads the invite lists for the given requests in one query.
func (s *RequestService) attachInvites(ctx context.Context, requests []*models.Request) error {
	if len(requests) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(requests))
	byID := make(map[uuid.UUID]*models.Request, len(requests))
	for i, req := range requests {
		ids[i] = req.ID
		byID[req.ID] = req
		req.InvitesSent = []models.Invite{}
	}

	rows, err := s.db.Query(ctx,
		`SELECT request_id, inviter_email, message, created_at
		 FROM invites
		 WHERE request_id = ANY($1)
		 ORDER BY created_at ASC`,
		ids,
	)
	if err != nil {
		return storeErr(fmt.Errorf("query invites: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var requestID uuid.UUID
		var invite models.Invite
		if err := rows.Scan(&requestID, &invite.InviterEmail, &invite.Message, &invite.CreatedAt); err != nil {
			s.logger.Warn("skipping malformed invite row", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		if req, ok := byID[requestID]; ok {
			req.InvitesSent = append(req.InvitesSent, invite)
		}
	}
	return storeErr(rows.Err())
}

func scanRequest(row Row) (*models.Request, error) {
	var r models.Request
	var lat, lon *float64
	err := row.Scan(&r.ID, &r.OwnerUserID, &r.OwnerEmail, &r.OwnerUsername,
		&r.Cuisine, &r.Event, &r.AgeOfOwner, &r.GenderOfOwner, &r.Blurb,
		&r.Date, &lat, &lon, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		r.Location = &models.GeoPoint{Latitude: *lat, Longitude: *lon}
	}
	return &r, nil
}
