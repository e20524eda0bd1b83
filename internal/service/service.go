// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the persistence layer.
package service

import (
	"context"
	"errors"

	"github.com/captainsofcommerce/events-api/internal/model"
	"github.com/captainsofcommerce/events-api/internal/repository"
)

// ErrInvalidArgument wraps all request-validation failures so handlers can
// map them to 400 without inspecting messages.
var ErrInvalidArgument = errors.New("invalid argument")

// DuplicateRegistrationError is returned when a registration attempt hits
// an existing row for the same (event, user) pair. It carries the existing
// registration's status and timestamp for the response body.
type DuplicateRegistrationError struct {
	Details model.DuplicateDetails
}

func (e *DuplicateRegistrationError) Error() string {
	return "already registered for this event"
}

func (e *DuplicateRegistrationError) Unwrap() error {
	return repository.ErrAlreadyRegistered
}

// EventStore is the persistence surface the event service depends on.
type EventStore interface {
	Create(ctx context.Context, req model.CreateEventRequest, createdByID string) (*model.Event, error)
	List(ctx context.Context, filter model.EventFilter) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

// RegistrationStore is the persistence surface the registration service
// depends on. Register and Unregister are atomic with respect to the
// capacity check and the waitlist promotion respectively.
type RegistrationStore interface {
	Register(ctx context.Context, eventID, userID string) (*model.Registration, error)
	CreateManual(ctx context.Context, req model.ManualRegistrationRequest) (*model.Registration, error)
	Unregister(ctx context.Context, eventID, userID string) (*model.Registration, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*model.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.RegistrationDetail, error)
	CountsByStatus(ctx context.Context, eventID string) (map[model.RegistrationStatus]int, error)
	ListByUser(ctx context.Context, userID string, filter model.UserRegistrationFilter) ([]model.UserRegistration, error)
	ListAdmin(ctx context.Context, filter model.AdminRegistrationFilter) ([]model.RegistrationDetail, int, error)
	UpdateStatusBulk(ctx context.Context, ids []string, status model.RegistrationStatus) (int64, error)
	DeleteBulk(ctx context.Context, ids []string) (int64, error)
}

// CommentStore is the persistence surface the comment service depends on.
type CommentStore interface {
	Create(ctx context.Context, eventID, userID, content string) (*model.Comment, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Comment, error)
}

// UserStore is the persistence surface the user service depends on.
type UserStore interface {
	Sync(ctx context.Context, subject, email, firstName, lastName string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}
