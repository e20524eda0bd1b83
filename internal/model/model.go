// Package model defines the core domain types for the community events API.
package model

import "time"

// UserRole is the access level attached to a user account.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleStaff UserRole = "STAFF"
	RoleDonor UserRole = "DONOR"
)

// EventType classifies a community event.
type EventType string

const (
	EventTypeToyDrive   EventType = "TOY_DRIVE"
	EventTypeFoodDrive  EventType = "FOOD_DRIVE"
	EventTypeFundraiser EventType = "FUNDRAISER"
	EventTypeOther      EventType = "OTHER"
)

// ValidEventType reports whether t is one of the known event types.
func ValidEventType(t EventType) bool {
	switch t {
	case EventTypeToyDrive, EventTypeFoodDrive, EventTypeFundraiser, EventTypeOther:
		return true
	}
	return false
}

// RegistrationStatus is the state of a registration. REGISTERED and
// WAITLISTED are assigned by the register flow; CANCELLED and ATTENDED are
// only reachable through the admin bulk status update.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "REGISTERED"
	StatusWaitlisted RegistrationStatus = "WAITLISTED"
	StatusCancelled  RegistrationStatus = "CANCELLED"
	StatusAttended   RegistrationStatus = "ATTENDED"
)

// ValidRegistrationStatus reports whether s is one of the known statuses.
func ValidRegistrationStatus(s RegistrationStatus) bool {
	switch s {
	case StatusRegistered, StatusWaitlisted, StatusCancelled, StatusAttended:
		return true
	}
	return false
}

// User mirrors an account at the external identity provider. ID is the
// provider subject. Authentication itself is delegated entirely to the
// provider; no password is stored beyond an unused placeholder column.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserSummary is the subset of user fields embedded in registration and
// comment listings.
type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

// Event is a community event that users can register for.
// MaxAttendees nil means unlimited capacity.
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartDateTime   time.Time `json:"startDateTime"`
	EndDateTime     time.Time `json:"endDateTime"`
	Location        string    `json:"location"`
	Address         string    `json:"address,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	RegistrationURL string    `json:"registrationUrl,omitempty"`
	EventType       EventType `json:"eventType"`
	MaxAttendees    *int      `json:"maxAttendees"`
	IsPublished     bool      `json:"isPublished"`
	CreatedByID     string    `json:"createdById"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// EventSummary is the subset of event fields embedded in registration
// listings.
type EventSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
	Location      string    `json:"location,omitempty"`
	EventType     EventType `json:"eventType,omitempty"`
	MaxAttendees  *int      `json:"maxAttendees,omitempty"`
}

// HasCapacity decides whether an event with the given configured maximum
// can accept another REGISTERED entry given the current REGISTERED count.
// A nil maximum means unlimited. Callers must evaluate this atomically
// with the insert it gates.
func HasCapacity(maxAttendees *int, registeredCount int) bool {
	return maxAttendees == nil || registeredCount < *maxAttendees
}

// SpotsRemaining returns the number of open REGISTERED slots, or nil for
// unlimited events. Never negative.
func SpotsRemaining(maxAttendees *int, registeredCount int) *int {
	if maxAttendees == nil {
		return nil
	}
	remaining := *maxAttendees - registeredCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// Registration records one user's intent to attend one event. At most one
// row exists per (event, user) pair; the store enforces the pair as a
// uniqueness key.
type Registration struct {
	ID                  string             `json:"id"`
	EventID             string             `json:"eventId"`
	UserID              string             `json:"userId"`
	Status              RegistrationStatus `json:"status"`
	NumberOfGuests      int                `json:"numberOfGuests"`
	SpecialRequirements string             `json:"specialRequirements,omitempty"`
	Notes               string             `json:"notes,omitempty"`
	RegisteredAt        time.Time          `json:"registeredAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// RegistrationDetail is a registration joined with its user and event
// summaries, used by staff/admin listings.
type RegistrationDetail struct {
	Registration
	User  UserSummary  `json:"user"`
	Event EventSummary `json:"event"`
}

// UserRegistration is a registration joined with its event summary, used
// by the self-service "my registrations" listing.
type UserRegistration struct {
	Registration
	Event EventSummary `json:"event"`
}

// Comment is a user remark on an event. Immutable once created.
type Comment struct {
	ID        string      `json:"id"`
	EventID   string      `json:"eventId"`
	UserID    string      `json:"userId"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
	User      UserSummary `json:"user"`
}
