package repositories

import (
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/dberrors"
)

// psql builds PostgreSQL statements with $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// writeError maps constraint violations onto the application error taxonomy.
func writeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case dberrors.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, apperrors.ErrConflict)
	case dberrors.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, apperrors.ErrResourceNotFound)
	case dberrors.IsCheckViolation(err):
		return fmt.Errorf("%s: %w", op, apperrors.ErrValidationFailed)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// readError maps a missing row onto notFound.
func readError(op string, err error, notFound error) error {
	if dberrors.IsNoRows(err) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nullTime turns a zero time into NULL so column defaults apply.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
