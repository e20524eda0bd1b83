package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/captainsofcommerce/events-api/internal/model"
)

const eventColumns = `id, title, description, start_date_time, end_date_time,
	location, address, image_url, registration_url, event_type,
	max_attendees, is_published, created_by_id, created_at, updated_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.StartDateTime, &e.EndDateTime,
		&e.Location, &e.Address, &e.ImageURL, &e.RegistrationURL, &e.EventType,
		&e.MaxAttendees, &e.IsPublished, &e.CreatedByID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, req model.CreateEventRequest, createdByID string) (*model.Event, error) {
	now := time.Now().UTC()
	event := &model.Event{
		ID:              uuid.New().String(),
		Title:           req.Title,
		Description:     req.Description,
		StartDateTime:   req.StartDateTime,
		EndDateTime:     req.EndDateTime,
		Location:        req.Location,
		Address:         req.Address,
		ImageURL:        req.ImageURL,
		RegistrationURL: req.RegistrationURL,
		EventType:       req.EventType,
		MaxAttendees:    req.MaxAttendees,
		IsPublished:     req.IsPublished,
		CreatedByID:     createdByID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, description, start_date_time, end_date_time,
			location, address, image_url, registration_url, event_type,
			max_attendees, is_published, created_by_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		event.ID, event.Title, event.Description, event.StartDateTime, event.EndDateTime,
		event.Location, event.Address, event.ImageURL, event.RegistrationURL, event.EventType,
		event.MaxAttendees, event.IsPublished, event.CreatedByID, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// List returns events matching the filter, ordered by start time ascending.
func (r *EventRepository) List(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	var args []any

	if filter.EventType != "" {
		args = append(args, filter.EventType)
		query += fmt.Sprintf(" AND event_type = $%d", len(args))
	}
	if filter.StartAfter != nil {
		args = append(args, *filter.StartAfter)
		query += fmt.Sprintf(" AND start_date_time >= $%d", len(args))
	}
	if filter.EndBefore != nil {
		args = append(args, *filter.EndBefore)
		query += fmt.Sprintf(" AND end_date_time <= $%d", len(args))
	}
	if filter.PublishedOnly {
		query += " AND is_published = TRUE"
	}
	query += " ORDER BY start_date_time ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// Update replaces the mutable fields of an event and returns the new state.
func (r *EventRepository) Update(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`UPDATE events
		 SET title = $2, description = $3, start_date_time = $4, end_date_time = $5,
		     location = $6, address = $7, image_url = $8, registration_url = $9,
		     event_type = $10, max_attendees = $11, is_published = $12, updated_at = $13
		 WHERE id = $1
		 RETURNING `+eventColumns,
		id, req.Title, req.Description, req.StartDateTime, req.EndDateTime,
		req.Location, req.Address, req.ImageURL, req.RegistrationURL,
		req.EventType, req.MaxAttendees, req.IsPublished, time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

// Delete removes an event. Registrations and comments cascade at the
// database level since the event exclusively owns them.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
