// Package repo contains all database access logic for the store finder.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/storefinder/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting it instead of *pgxpool.Pool lets integration tests pass a
// transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Postgres SQLSTATE codes mapped to domain errors.
const (
	codeNotNullViolation = "23502"
	codeUniqueViolation  = "23505"
	codeCheckViolation   = "23514"
)

// checkConstraints maps CHECK constraint names from the migrations to the
// field-level validation error they enforce.
var checkConstraints = map[string]domain.ValidationError{
	"stores_name_not_blank":      {Field: "name", Reason: domain.ReasonNameRequired},
	"stores_slug_not_blank":      {Field: "name", Reason: domain.ReasonNameNotSluggable},
	"stores_address_not_blank":   {Field: "location.address", Reason: domain.ReasonAddressRequired},
	"stores_location_type_point": {Field: "location.type", Reason: "must be Point"},
	"stores_lng_range":           {Field: "location.coordinates", Reason: "longitude must be between -180 and 180"},
	"stores_lat_range":           {Field: "location.coordinates", Reason: "latitude must be between -90 and 90"},
}

// mapPgError converts constraint violations into domain errors so the
// service layer never has to know about SQLSTATE codes. Anything else is
// returned unchanged.
func mapPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		if pgErr.ConstraintName == "stores_slug_key" {
			return domain.ErrSlugTaken
		}
	case codeCheckViolation:
		if v, ok := checkConstraints[pgErr.ConstraintName]; ok {
			return &v
		}
	case codeNotNullViolation:
		return domain.NewValidationError(pgErr.ColumnName, "is required")
	}
	return err
}
