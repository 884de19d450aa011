package services

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrStoreUnavailable wraps network-level store failures. Callers may
	// retry with backoff; logical-conflict errors must not be retried.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidInput marks bad or missing caller input. Never retried.
	ErrInvalidInput = errors.New("invalid input")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// storeErr folds transport-level failures into ErrStoreUnavailable so the
// HTTP layer can signal a retryable condition, and passes logical errors
// through untouched.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		pgconn.Timeout(err) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return err
}
