package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/captainsofcommerce/events-api/internal/model"
)

const userColumns = `id, email, first_name, last_name, role, created_at, updated_at`

// UserRepository handles persistence for user accounts mirrored from the
// identity provider.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Sync upserts a user record from identity-provider claims. The row is
// keyed by the provider subject; a pre-existing account that only matches
// by email is adopted by rewriting its ID to the subject. Both paths are
// single statements, so concurrent first logins for the same identity
// collide on the unique constraints instead of creating duplicates.
func (r *UserRepository) Sync(ctx context.Context, subject, email, firstName, lastName string) (*model.User, error) {
	now := time.Now().UTC()
	u, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (id, email, first_name, last_name, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, updated_at = EXCLUDED.updated_at
		 RETURNING `+userColumns,
		subject, email, firstName, lastName, model.RoleDonor, now,
	))
	if err == nil {
		return u, nil
	}

	// A unique violation here is the email constraint: an account created
	// before subject-keying existed. Adopt it; registrations and comments
	// follow via ON UPDATE CASCADE.
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	u, err = scanUser(r.db.QueryRow(ctx,
		`UPDATE users
		 SET id = $1, first_name = $3, last_name = $4, updated_at = $5
		 WHERE email = $2
		 RETURNING `+userColumns,
		subject, email, firstName, lastName, now,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("reconcile user by email: %w", err)
	}
	return u, nil
}

// GetByID returns a user or ErrUserNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
