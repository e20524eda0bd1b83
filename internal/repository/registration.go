package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/captainsofcommerce/events-api/internal/model"
)

const uniqueViolation = "23505"

const registrationColumns = `id, event_id, user_id, status, number_of_guests,
	COALESCE(special_requirements, ''), COALESCE(notes, ''), registered_at, updated_at`

// RegistrationRepository handles persistence for event registrations.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.NumberOfGuests,
		&reg.SpecialRequirements, &reg.Notes, &reg.RegisteredAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Register inserts a registration for (eventID, userID) inside a serialised
// transaction.
//
// The capacity check and the insert must be one atomic unit: two concurrent
// registrations that both read free capacity before either writes would
// overbook the event. SELECT ... FOR UPDATE takes a row-level lock on the
// event, so concurrent attempts queue behind each other and each one sees
// the REGISTERED count left by the previous commit. A full event demotes
// the new entry to WAITLISTED instead of rejecting it.
func (r *RegistrationRepository) Register(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the event row for the duration of the transaction.
	var maxAttendees *int
	var isPublished bool
	err = tx.QueryRow(ctx,
		`SELECT max_attendees, is_published FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&maxAttendees, &isPublished)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	if !isPublished {
		err = ErrEventNotPublished
		return nil, err
	}

	var dupCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&dupCount)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dupCount > 0 {
		err = ErrAlreadyRegistered
		return nil, err
	}

	var registeredCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status = $2`,
		eventID, model.StatusRegistered,
	).Scan(&registeredCount)
	if err != nil {
		return nil, fmt.Errorf("count registered: %w", err)
	}

	status := model.StatusRegistered
	if !model.HasCapacity(maxAttendees, registeredCount) {
		status = model.StatusWaitlisted
	}

	now := time.Now().UTC()
	reg := &model.Registration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		UserID:       userID,
		Status:       status,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO event_registrations (id, event_id, user_id, status, number_of_guests, registered_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		reg.ID, reg.EventID, reg.UserID, reg.Status, reg.NumberOfGuests, reg.RegisteredAt, reg.UpdatedAt,
	)
	if err != nil {
		// The unique constraint on (event_id, user_id) is the backstop for
		// duplicate attempts the count above could not see.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			err = ErrAlreadyRegistered
			return nil, err
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return reg, nil
}

// CreateManual inserts a staff-specified registration without the capacity
// gate; the admin decides the status.
func (r *RegistrationRepository) CreateManual(ctx context.Context, req model.ManualRegistrationRequest) (*model.Registration, error) {
	now := time.Now().UTC()
	reg := &model.Registration{
		ID:                  uuid.New().String(),
		EventID:             req.EventID,
		UserID:              req.UserID,
		Status:              req.Status,
		NumberOfGuests:      req.NumberOfGuests,
		SpecialRequirements: req.SpecialRequirements,
		Notes:               req.Notes,
		RegisteredAt:        now,
		UpdatedAt:           now,
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO event_registrations (id, event_id, user_id, status, number_of_guests,
			special_requirements, notes, registered_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		reg.ID, reg.EventID, reg.UserID, reg.Status, reg.NumberOfGuests,
		reg.SpecialRequirements, reg.Notes, reg.RegisteredAt, reg.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("insert manual registration: %w", err)
	}
	return reg, nil
}

// Unregister hard-deletes the registration for (eventID, userID). When the
// deleted row held a REGISTERED slot, the oldest WAITLISTED entry for the
// event is promoted in the same transaction, so the slot is never visible
// as free to a concurrent register. Returns the promoted registration, or
// nil when no promotion happened.
func (r *RegistrationRepository) Unregister(ctx context.Context, eventID, userID string) (promoted *model.Registration, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Same event-row lock as Register, so deletes and inserts serialise.
	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT TRUE FROM events WHERE id = $1 FOR UPDATE`, eventID,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	var vacatedStatus model.RegistrationStatus
	err = tx.QueryRow(ctx,
		`DELETE FROM event_registrations WHERE event_id = $1 AND user_id = $2 RETURNING status`,
		eventID, userID,
	).Scan(&vacatedStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete registration: %w", err)
	}

	if vacatedStatus == model.StatusRegistered {
		promoted, err = promoteOldestWaitlisted(ctx, tx, eventID)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return promoted, nil
}

// promoteOldestWaitlisted flips the single oldest WAITLISTED registration
// for the event to REGISTERED. FIFO order is registration time, with the
// insertion sequence breaking ties. No-op when the waitlist is empty.
func promoteOldestWaitlisted(ctx context.Context, tx pgx.Tx, eventID string) (*model.Registration, error) {
	reg, err := scanRegistration(tx.QueryRow(ctx,
		`UPDATE event_registrations
		 SET status = $2, updated_at = $3
		 WHERE id = (
			SELECT id FROM event_registrations
			WHERE event_id = $1 AND status = $4
			ORDER BY registered_at ASC, seq ASC
			LIMIT 1
		 )
		 RETURNING `+registrationColumns,
		eventID, model.StatusRegistered, time.Now().UTC(), model.StatusWaitlisted,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("promote waitlisted: %w", err)
	}
	return reg, nil
}

// GetByEventAndUser returns the registration for the pair or ErrNotFound.
func (r *RegistrationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+`
		 FROM event_registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

// ListByEvent returns all registrations for an event with user summaries,
// ordered by registration time ascending (waitlist order).
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.RegistrationDetail, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.event_id, r.user_id, r.status, r.number_of_guests,
			COALESCE(r.special_requirements, ''), COALESCE(r.notes, ''), r.registered_at, r.updated_at,
			u.id, u.first_name, u.last_name, u.email
		 FROM event_registrations r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.event_id = $1
		 ORDER BY r.registered_at ASC, r.seq ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var details []model.RegistrationDetail
	for rows.Next() {
		var d model.RegistrationDetail
		if err := rows.Scan(
			&d.ID, &d.EventID, &d.UserID, &d.Status, &d.NumberOfGuests,
			&d.SpecialRequirements, &d.Notes, &d.RegisteredAt, &d.UpdatedAt,
			&d.User.ID, &d.User.FirstName, &d.User.LastName, &d.User.Email,
		); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// CountsByStatus returns the number of registrations per status for an
// event.
func (r *RegistrationRepository) CountsByStatus(ctx context.Context, eventID string) (map[model.RegistrationStatus]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, COUNT(*) FROM event_registrations WHERE event_id = $1 GROUP BY status`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.RegistrationStatus]int)
	for rows.Next() {
		var status model.RegistrationStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ListByUser returns one user's registrations with event summaries,
// ordered by event start time.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string, filter model.UserRegistrationFilter) ([]model.UserRegistration, error) {
	query := `SELECT r.id, r.event_id, r.user_id, r.status, r.number_of_guests,
		COALESCE(r.special_requirements, ''), COALESCE(r.notes, ''), r.registered_at, r.updated_at,
		e.id, e.title, e.start_date_time, e.end_date_time, e.location, e.event_type, e.max_attendees
	 FROM event_registrations r
	 JOIN events e ON e.id = r.event_id
	 WHERE r.user_id = $1`
	args := []any{userID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	if filter.UpcomingOnly {
		args = append(args, time.Now().UTC())
		query += fmt.Sprintf(" AND e.start_date_time >= $%d", len(args))
	}
	query += " ORDER BY e.start_date_time ASC, r.registered_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list user registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.UserRegistration
	for rows.Next() {
		var ur model.UserRegistration
		if err := rows.Scan(
			&ur.ID, &ur.EventID, &ur.UserID, &ur.Status, &ur.NumberOfGuests,
			&ur.SpecialRequirements, &ur.Notes, &ur.RegisteredAt, &ur.UpdatedAt,
			&ur.Event.ID, &ur.Event.Title, &ur.Event.StartDateTime, &ur.Event.EndDateTime,
			&ur.Event.Location, &ur.Event.EventType, &ur.Event.MaxAttendees,
		); err != nil {
			return nil, fmt.Errorf("scan user registration: %w", err)
		}
		regs = append(regs, ur)
	}
	return regs, rows.Err()
}

// ListAdmin returns one page of registrations across events with user and
// event summaries, newest first, plus the total matching count.
func (r *RegistrationRepository) ListAdmin(ctx context.Context, filter model.AdminRegistrationFilter) ([]model.RegistrationDetail, int, error) {
	where := " WHERE 1=1"
	var args []any
	if filter.EventID != "" {
		args = append(args, filter.EventID)
		where += fmt.Sprintf(" AND r.event_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND r.status = $%d", len(args))
	}

	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_registrations r`+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count admin registrations: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	query := `SELECT r.id, r.event_id, r.user_id, r.status, r.number_of_guests,
		COALESCE(r.special_requirements, ''), COALESCE(r.notes, ''), r.registered_at, r.updated_at,
		u.id, u.first_name, u.last_name, u.email,
		e.id, e.title, e.start_date_time, e.end_date_time, e.max_attendees
	 FROM event_registrations r
	 JOIN users u ON u.id = r.user_id
	 JOIN events e ON e.id = r.event_id` + where +
		fmt.Sprintf(" ORDER BY r.registered_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list admin registrations: %w", err)
	}
	defer rows.Close()

	var details []model.RegistrationDetail
	for rows.Next() {
		var d model.RegistrationDetail
		if err := rows.Scan(
			&d.ID, &d.EventID, &d.UserID, &d.Status, &d.NumberOfGuests,
			&d.SpecialRequirements, &d.Notes, &d.RegisteredAt, &d.UpdatedAt,
			&d.User.ID, &d.User.FirstName, &d.User.LastName, &d.User.Email,
			&d.Event.ID, &d.Event.Title, &d.Event.StartDateTime, &d.Event.EndDateTime, &d.Event.MaxAttendees,
		); err != nil {
			return nil, 0, fmt.Errorf("scan admin registration: %w", err)
		}
		details = append(details, d)
	}
	return details, total, rows.Err()
}

// UpdateStatusBulk sets the status for every matching registration ID and
// returns the affected count. Bulk updates never trigger promotion.
func (r *RegistrationRepository) UpdateStatusBulk(ctx context.Context, ids []string, status model.RegistrationStatus) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE event_registrations SET status = $1, updated_at = $2 WHERE id = ANY($3)`,
		status, time.Now().UTC(), ids,
	)
	if err != nil {
		return 0, fmt.Errorf("bulk update status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteBulk removes every matching registration ID and returns the
// affected count. Bulk deletes never trigger promotion.
func (r *RegistrationRepository) DeleteBulk(ctx context.Context, ids []string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM event_registrations WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	return tag.RowsAffected(), nil
}
