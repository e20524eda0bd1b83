package service

import (
	"context"
	"fmt"

	"github.com/captainsofcommerce/events-api/internal/model"
)

// UserService keeps local user records in step with the identity provider.
type UserService struct {
	users UserStore
}

// NewUserService constructs a UserService with its dependencies.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// SyncUser idempotently upserts the account for an authenticated subject.
// Called after every successful login callback, so repeated syncs for the
// same subject converge on one row.
func (s *UserService) SyncUser(ctx context.Context, subject, email, firstName, lastName string) (*model.User, error) {
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidArgument)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	return s.users.Sync(ctx, subject, email, firstName, lastName)
}

// GetUser returns a user account by provider subject.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}
