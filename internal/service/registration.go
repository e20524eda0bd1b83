package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/captainsofcommerce/events-api/internal/model"
	"github.com/captainsofcommerce/events-api/internal/repository"
)

const (
	// MsgRegistered and MsgWaitlisted tell the caller which status the
	// register flow actually assigned; a full event demotes silently
	// rather than erroring, so the message is the only signal.
	MsgRegistered = "Successfully registered for the event"
	MsgWaitlisted = "Event is full. You have been added to the waitlist"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// RegistrationService orchestrates the registration state machine: the
// capacity-gated register flow, self-service cancellation with waitlist
// promotion, and the staff/admin management operations.
type RegistrationService struct {
	registrations RegistrationStore
	events        EventStore
	users         UserStore
	validate      *validator.Validate
}

// NewRegistrationService constructs a RegistrationService with its
// dependencies.
func NewRegistrationService(registrations RegistrationStore, events EventStore, users UserStore) *RegistrationService {
	return &RegistrationService{
		registrations: registrations,
		events:        events,
		users:         users,
		validate:      validator.New(),
	}
}

// duplicateError loads the existing row for the pair and wraps its status
// and timestamp so handlers can surface them.
func (s *RegistrationService) duplicateError(ctx context.Context, eventID, userID string) error {
	existing, err := s.registrations.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		// The row vanished between the conflict and the lookup; report the
		// conflict without details.
		return &DuplicateRegistrationError{}
	}
	return &DuplicateRegistrationError{Details: model.DuplicateDetails{
		CurrentStatus: existing.Status,
		RegisteredAt:  existing.RegisteredAt,
	}}
}

// Register signs the user up for a published event. The store decides
// REGISTERED versus WAITLISTED atomically against the event's capacity.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID string) (*model.RegistrationOutcome, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", ErrInvalidArgument)
	}

	reg, err := s.registrations.Register(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyRegistered) {
			return nil, s.duplicateError(ctx, eventID, userID)
		}
		return nil, err
	}

	msg := MsgRegistered
	if reg.Status == model.StatusWaitlisted {
		msg = MsgWaitlisted
	}
	return &model.RegistrationOutcome{Registration: reg, Message: msg}, nil
}

// Unregister hard-deletes the caller's registration. Vacating a REGISTERED
// slot promotes the oldest waitlisted entry; the promoted registration is
// returned when that happened.
func (s *RegistrationService) Unregister(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", ErrInvalidArgument)
	}
	return s.registrations.Unregister(ctx, eventID, userID)
}

// EventRoster returns the staff view of an event: all registrations with
// user details, counts by status, and remaining REGISTERED capacity.
func (s *RegistrationService) EventRoster(ctx context.Context, eventID string) (*model.EventRegistrationsSummary, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	counts, err := s.registrations.CountsByStatus(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []model.RegistrationDetail{}
	}

	return &model.EventRegistrationsSummary{
		Registrations:  regs,
		CountsByStatus: counts,
		SpotsRemaining: model.SpotsRemaining(event.MaxAttendees, counts[model.StatusRegistered]),
	}, nil
}

// ListForUser returns the caller's own registrations.
func (s *RegistrationService) ListForUser(ctx context.Context, userID string, filter model.UserRegistrationFilter) ([]model.UserRegistration, error) {
	if filter.Status != "" && !model.ValidRegistrationStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, filter.Status)
	}
	regs, err := s.registrations.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []model.UserRegistration{}
	}
	return regs, nil
}

// ManualRegister creates a registration on a user's behalf with a
// staff-chosen status. It bypasses the capacity gate and the published
// check but still honors the (event, user) uniqueness invariant and the
// guest-count bounds.
func (s *RegistrationService) ManualRegister(ctx context.Context, req model.ManualRegistrationRequest) (*model.Registration, error) {
	if req.Status == "" {
		req.Status = model.StatusRegistered
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}
	if !model.ValidRegistrationStatus(req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, req.Status)
	}

	if _, err := s.events.GetByID(ctx, req.EventID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	reg, err := s.registrations.CreateManual(ctx, req)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyRegistered) {
			return nil, s.duplicateError(ctx, req.EventID, req.UserID)
		}
		return nil, err
	}
	return reg, nil
}

// ListAdmin returns one page of registrations across all events.
func (s *RegistrationService) ListAdmin(ctx context.Context, filter model.AdminRegistrationFilter) ([]model.RegistrationDetail, model.Pagination, error) {
	if filter.Status != "" && !model.ValidRegistrationStatus(filter.Status) {
		return nil, model.Pagination{}, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, filter.Status)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	regs, total, err := s.registrations.ListAdmin(ctx, filter)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	if regs == nil {
		regs = []model.RegistrationDetail{}
	}

	pages := (total + filter.Limit - 1) / filter.Limit
	return regs, model.Pagination{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
		Pages: pages,
	}, nil
}

// BulkUpdate applies a status update or delete to a set of registration
// IDs and returns the affected count. Bulk operations never trigger
// waitlist promotion.
func (s *RegistrationService) BulkUpdate(ctx context.Context, req model.BulkRegistrationRequest) (int64, error) {
	if err := s.validate.Struct(req); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}

	switch req.Action {
	case "updateStatus":
		if req.NewStatus == "" {
			return 0, fmt.Errorf("%w: new status is required for status update", ErrInvalidArgument)
		}
		if !model.ValidRegistrationStatus(req.NewStatus) {
			return 0, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, req.NewStatus)
		}
		return s.registrations.UpdateStatusBulk(ctx, req.RegistrationIDs, req.NewStatus)
	case "delete":
		return s.registrations.DeleteBulk(ctx, req.RegistrationIDs)
	default:
		return 0, fmt.Errorf("%w: invalid action %q", ErrInvalidArgument, req.Action)
	}
}
