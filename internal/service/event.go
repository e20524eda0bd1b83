package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/captainsofcommerce/events-api/internal/model"
)

// EventService orchestrates event CRUD operations.
type EventService struct {
	events   EventStore
	validate *validator.Validate
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore) *EventService {
	return &EventService{
		events:   events,
		validate: validator.New(),
	}
}

func (s *EventService) validateEventRequest(req *model.CreateEventRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)

	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}
	if !model.ValidEventType(req.EventType) {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidArgument, req.EventType)
	}
	if !req.EndDateTime.After(req.StartDateTime) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidArgument)
	}
	return nil
}

// CreateEvent validates the request and creates an event owned by the
// calling staff member.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest, createdByID string) (*model.Event, error) {
	if err := s.validateEventRequest(&req); err != nil {
		return nil, err
	}
	event, err := s.events.Create(ctx, req, createdByID)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// ListEvents returns events matching the filter.
func (s *EventService) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	return s.events.List(ctx, filter)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: event id is required", ErrInvalidArgument)
	}
	return s.events.GetByID(ctx, id)
}

// UpdateEvent validates the request and replaces the event's mutable
// fields. The start/end ordering invariant is enforced here, not
// retroactively against existing rows.
func (s *EventService) UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	if err := s.validateEventRequest(&req); err != nil {
		return nil, err
	}
	return s.events.Update(ctx, id, req)
}

// DeleteEvent removes an event along with its registrations and comments.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	return s.events.Delete(ctx, id)
}
