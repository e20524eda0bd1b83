// Package memstore is an in-memory implementation of the service store
// interfaces. It mirrors the SQL repositories' semantics, including the
// single-writer discipline the event row lock provides, and backs tests
// that exercise the registration state machine without a database.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/captainsofcommerce/events-api/internal/model"
	"github.com/captainsofcommerce/events-api/internal/repository"
	"github.com/captainsofcommerce/events-api/internal/service"
)

// Store holds all entities behind one mutex. The per-interface views
// returned by Events, Registrations, Comments and Users share it.
type Store struct {
	mu sync.Mutex

	users         map[string]*model.User
	events        map[string]*model.Event
	registrations map[string]*model.Registration
	comments      map[string]*model.Comment

	// seqs preserve insertion order for tie-breaking when timestamps
	// collide within clock resolution.
	seqs        map[string]int64
	commentSeqs map[string]int64
	nextSeq     int64
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		users:         make(map[string]*model.User),
		events:        make(map[string]*model.Event),
		registrations: make(map[string]*model.Registration),
		comments:      make(map[string]*model.Comment),
		seqs:          make(map[string]int64),
		commentSeqs:   make(map[string]int64),
	}
}

// Events returns the store's EventStore view.
func (s *Store) Events() service.EventStore { return &eventStore{s} }

// Registrations returns the store's RegistrationStore view.
func (s *Store) Registrations() service.RegistrationStore { return &registrationStore{s} }

// Comments returns the store's CommentStore view.
func (s *Store) Comments() service.CommentStore { return &commentStore{s} }

// Users returns the store's UserStore view.
func (s *Store) Users() service.UserStore { return &userStore{s} }

// SeedUser inserts a user directly, bypassing the sync flow.
func (s *Store) SeedUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Role == "" {
		u.Role = model.RoleDonor
	}
	s.users[u.ID] = &u
}

func (s *Store) userSummaryLocked(userID string) model.UserSummary {
	if u, ok := s.users[userID]; ok {
		return model.UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
	}
	return model.UserSummary{ID: userID}
}

func (s *Store) eventSummaryLocked(eventID string) model.EventSummary {
	if e, ok := s.events[eventID]; ok {
		return model.EventSummary{
			ID:            e.ID,
			Title:         e.Title,
			StartDateTime: e.StartDateTime,
			EndDateTime:   e.EndDateTime,
			Location:      e.Location,
			EventType:     e.EventType,
			MaxAttendees:  e.MaxAttendees,
		}
	}
	return model.EventSummary{ID: eventID}
}

func (s *Store) registeredCountLocked(eventID string) int {
	count := 0
	for _, r := range s.registrations {
		if r.EventID == eventID && r.Status == model.StatusRegistered {
			count++
		}
	}
	return count
}

func (s *Store) findPairLocked(eventID, userID string) *model.Registration {
	for _, r := range s.registrations {
		if r.EventID == eventID && r.UserID == userID {
			return r
		}
	}
	return nil
}

func (s *Store) insertRegistrationLocked(reg *model.Registration) {
	s.registrations[reg.ID] = reg
	s.nextSeq++
	s.seqs[reg.ID] = s.nextSeq
}

// ── EventStore ──

type eventStore struct{ s *Store }

var _ service.EventStore = (*eventStore)(nil)

func (v *eventStore) Create(_ context.Context, req model.CreateEventRequest, createdByID string) (*model.Event, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	now := time.Now().UTC()
	e := &model.Event{
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
	v.s.events[e.ID] = e
	out := *e
	return &out, nil
}

func (v *eventStore) List(_ context.Context, filter model.EventFilter) ([]model.Event, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var events []model.Event
	for _, e := range v.s.events {
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		if filter.StartAfter != nil && e.StartDateTime.Before(*filter.StartAfter) {
			continue
		}
		if filter.EndBefore != nil && e.EndDateTime.After(*filter.EndBefore) {
			continue
		}
		if filter.PublishedOnly && !e.IsPublished {
			continue
		}
		events = append(events, *e)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartDateTime.Before(events[j].StartDateTime)
	})
	return events, nil
}

func (v *eventStore) GetByID(_ context.Context, id string) (*model.Event, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	e, ok := v.s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *e
	return &out, nil
}

func (v *eventStore) Update(_ context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	e, ok := v.s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e.Title = req.Title
	e.Description = req.Description
	e.StartDateTime = req.StartDateTime
	e.EndDateTime = req.EndDateTime
	e.Location = req.Location
	e.Address = req.Address
	e.ImageURL = req.ImageURL
	e.RegistrationURL = req.RegistrationURL
	e.EventType = req.EventType
	e.MaxAttendees = req.MaxAttendees
	e.IsPublished = req.IsPublished
	e.UpdatedAt = time.Now().UTC()
	out := *e
	return &out, nil
}

func (v *eventStore) Delete(_ context.Context, id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if _, ok := v.s.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(v.s.events, id)
	for rid, r := range v.s.registrations {
		if r.EventID == id {
			delete(v.s.registrations, rid)
			delete(v.s.seqs, rid)
		}
	}
	for cid, c := range v.s.comments {
		if c.EventID == id {
			delete(v.s.comments, cid)
			delete(v.s.commentSeqs, cid)
		}
	}
	return nil
}

// ── RegistrationStore ──

type registrationStore struct{ s *Store }

var _ service.RegistrationStore = (*registrationStore)(nil)

// Register mirrors the SQL transaction: the store mutex plays the role of
// the event row lock, so the capacity check and the insert are one
// critical section.
func (v *registrationStore) Register(_ context.Context, eventID, userID string) (*model.Registration, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	event, ok := v.s.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !event.IsPublished {
		return nil, repository.ErrEventNotPublished
	}
	if v.s.findPairLocked(eventID, userID) != nil {
		return nil, repository.ErrAlreadyRegistered
	}

	status := model.StatusRegistered
	if !model.HasCapacity(event.MaxAttendees, v.s.registeredCountLocked(eventID)) {
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
	v.s.insertRegistrationLocked(reg)
	out := *reg
	return &out, nil
}

func (v *registrationStore) CreateManual(_ context.Context, req model.ManualRegistrationRequest) (*model.Registration, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if v.s.findPairLocked(req.EventID, req.UserID) != nil {
		return nil, repository.ErrAlreadyRegistered
	}

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
	v.s.insertRegistrationLocked(reg)
	out := *reg
	return &out, nil
}

// Unregister mirrors the SQL transaction: deleting a REGISTERED row
// promotes the oldest waitlisted entry within the same critical section.
func (v *registrationStore) Unregister(_ context.Context, eventID, userID string) (*model.Registration, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if _, ok := v.s.events[eventID]; !ok {
		return nil, repository.ErrNotFound
	}
	reg := v.s.findPairLocked(eventID, userID)
	if reg == nil {
		return nil, repository.ErrNotFound
	}
	delete(v.s.registrations, reg.ID)
	delete(v.s.seqs, reg.ID)

	if reg.Status != model.StatusRegistered {
		return nil, nil
	}

	var oldest *model.Registration
	for _, r := range v.s.registrations {
		if r.EventID != eventID || r.Status != model.StatusWaitlisted {
			continue
		}
		if oldest == nil || v.waitlistedBefore(r, oldest) {
			oldest = r
		}
	}
	if oldest == nil {
		return nil, nil
	}
	oldest.Status = model.StatusRegistered
	oldest.UpdatedAt = time.Now().UTC()
	out := *oldest
	return &out, nil
}

func (v *registrationStore) waitlistedBefore(a, b *model.Registration) bool {
	if !a.RegisteredAt.Equal(b.RegisteredAt) {
		return a.RegisteredAt.Before(b.RegisteredAt)
	}
	return v.s.seqs[a.ID] < v.s.seqs[b.ID]
}

func (v *registrationStore) GetByEventAndUser(_ context.Context, eventID, userID string) (*model.Registration, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	reg := v.s.findPairLocked(eventID, userID)
	if reg == nil {
		return nil, repository.ErrNotFound
	}
	out := *reg
	return &out, nil
}

func (v *registrationStore) ListByEvent(_ context.Context, eventID string) ([]model.RegistrationDetail, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var details []model.RegistrationDetail
	for _, r := range v.s.registrations {
		if r.EventID != eventID {
			continue
		}
		details = append(details, model.RegistrationDetail{
			Registration: *r,
			User:         v.s.userSummaryLocked(r.UserID),
			Event:        v.s.eventSummaryLocked(r.EventID),
		})
	}
	sort.Slice(details, func(i, j int) bool {
		if !details[i].RegisteredAt.Equal(details[j].RegisteredAt) {
			return details[i].RegisteredAt.Before(details[j].RegisteredAt)
		}
		return v.s.seqs[details[i].ID] < v.s.seqs[details[j].ID]
	})
	return details, nil
}

func (v *registrationStore) CountsByStatus(_ context.Context, eventID string) (map[model.RegistrationStatus]int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	counts := make(map[model.RegistrationStatus]int)
	for _, r := range v.s.registrations {
		if r.EventID == eventID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func (v *registrationStore) ListByUser(_ context.Context, userID string, filter model.UserRegistrationFilter) ([]model.UserRegistration, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	now := time.Now().UTC()
	var regs []model.UserRegistration
	for _, r := range v.s.registrations {
		if r.UserID != userID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		event := v.s.eventSummaryLocked(r.EventID)
		if filter.UpcomingOnly && event.StartDateTime.Before(now) {
			continue
		}
		regs = append(regs, model.UserRegistration{Registration: *r, Event: event})
	}
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].Event.StartDateTime.Before(regs[j].Event.StartDateTime)
	})
	return regs, nil
}

func (v *registrationStore) ListAdmin(_ context.Context, filter model.AdminRegistrationFilter) ([]model.RegistrationDetail, int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var details []model.RegistrationDetail
	for _, r := range v.s.registrations {
		if filter.EventID != "" && r.EventID != filter.EventID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		details = append(details, model.RegistrationDetail{
			Registration: *r,
			User:         v.s.userSummaryLocked(r.UserID),
			Event:        v.s.eventSummaryLocked(r.EventID),
		})
	}
	sort.Slice(details, func(i, j int) bool {
		return details[i].RegisteredAt.After(details[j].RegisteredAt)
	})

	total := len(details)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return details[start:end], total, nil
}

func (v *registrationStore) UpdateStatusBulk(_ context.Context, ids []string, status model.RegistrationStatus) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var affected int64
	for _, id := range ids {
		if r, ok := v.s.registrations[id]; ok {
			r.Status = status
			r.UpdatedAt = time.Now().UTC()
			affected++
		}
	}
	return affected, nil
}

func (v *registrationStore) DeleteBulk(_ context.Context, ids []string) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var affected int64
	for _, id := range ids {
		if _, ok := v.s.registrations[id]; ok {
			delete(v.s.registrations, id)
			delete(v.s.seqs, id)
			affected++
		}
	}
	return affected, nil
}

// ── CommentStore ──

type commentStore struct{ s *Store }

var _ service.CommentStore = (*commentStore)(nil)

func (v *commentStore) Create(_ context.Context, eventID, userID, content string) (*model.Comment, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if _, ok := v.s.events[eventID]; !ok {
		return nil, repository.ErrNotFound
	}
	c := &model.Comment{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		User:      v.s.userSummaryLocked(userID),
	}
	c.User.Email = ""
	v.s.comments[c.ID] = c
	v.s.nextSeq++
	v.s.commentSeqs[c.ID] = v.s.nextSeq
	out := *c
	return &out, nil
}

func (v *commentStore) ListByEvent(_ context.Context, eventID string) ([]model.Comment, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var comments []model.Comment
	for _, c := range v.s.comments {
		if c.EventID == eventID {
			comments = append(comments, *c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.After(comments[j].CreatedAt)
		}
		return v.s.commentSeqs[comments[i].ID] > v.s.commentSeqs[comments[j].ID]
	})
	return comments, nil
}

// ── UserStore ──

type userStore struct{ s *Store }

var _ service.UserStore = (*userStore)(nil)

// Sync applies the same reconciliation order as the SQL repository:
// by subject first, then adoption of a pre-existing account by email.
func (v *userStore) Sync(_ context.Context, subject, email, firstName, lastName string) (*model.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	now := time.Now().UTC()
	if u, ok := v.s.users[subject]; ok {
		u.Email = email
		u.UpdatedAt = now
		out := *u
		return &out, nil
	}

	for id, u := range v.s.users {
		if strings.EqualFold(u.Email, email) {
			delete(v.s.users, id)
			u.ID = subject
			u.FirstName = firstName
			u.LastName = lastName
			u.UpdatedAt = now
			v.s.users[subject] = u
			for _, r := range v.s.registrations {
				if r.UserID == id {
					r.UserID = subject
				}
			}
			for _, c := range v.s.comments {
				if c.UserID == id {
					c.UserID = subject
				}
			}
			out := *u
			return &out, nil
		}
	}

	u := &model.User{
		ID:        subject,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      model.RoleDonor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	v.s.users[subject] = u
	out := *u
	return &out, nil
}

func (v *userStore) GetByID(_ context.Context, id string) (*model.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	u, ok := v.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	out := *u
	return &out, nil
}
