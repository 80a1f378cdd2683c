package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/rlemke/agentflow-sub002/internal/engineerr"
)

// ErrNotFound is returned as-is (never wrapped) so callers can use
// errors.Is(err, store.ErrNotFound) to distinguish a missing row from a
// genuine failure.
var ErrNotFound = gorm.ErrRecordNotFound

// mapError classifies an infrastructure failure into the runtime's
// error kinds. Unique-violation and serialization/deadlock failures
// become KindConcurrency so callers can distinguish
// them from a genuine not-found or internal fault.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if engineerr.KindOf(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return engineerr.Concurrency(op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505": // unique_violation
			return engineerr.Concurrency(op, err)
		case "23503": // foreign_key_violation
			return engineerr.New(engineerr.KindInternal, op, "foreign key violation", err)
		case "40001", "40P01", "55P03": // serialization/deadlock/lock_not_available
			return engineerr.Concurrency(op, err)
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "already exists"):
		return engineerr.Concurrency(op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return engineerr.Concurrency(op, err)
	default:
		return engineerr.Wrap(engineerr.KindInternal, op, err)
	}
}
