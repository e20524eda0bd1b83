package model

import "time"

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title           string    `json:"title" validate:"required,max=200"`
	Description     string    `json:"description" validate:"required"`
	StartDateTime   time.Time `json:"startDateTime" validate:"required"`
	EndDateTime     time.Time `json:"endDateTime" validate:"required"`
	Location        string    `json:"location" validate:"required,max=500"`
	Address         string    `json:"address"`
	ImageURL        string    `json:"imageUrl" validate:"omitempty,url"`
	RegistrationURL string    `json:"registrationUrl" validate:"omitempty,url"`
	EventType       EventType `json:"eventType" validate:"required"`
	MaxAttendees    *int      `json:"maxAttendees" validate:"omitempty,min=1"`
	IsPublished     bool      `json:"isPublished"`
}

// UpdateEventRequest is the payload for updating an event. It carries the
// full new state of the mutable fields, like the create payload.
type UpdateEventRequest = CreateEventRequest

// EventFilter narrows event listings.
type EventFilter struct {
	EventType     EventType
	StartAfter    *time.Time
	EndBefore     *time.Time
	PublishedOnly bool
}

// CreateCommentRequest is the payload for commenting on an event.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// ManualRegistrationRequest is the staff/admin payload for registering a
// user on their behalf.
type ManualRegistrationRequest struct {
	EventID             string             `json:"eventId" validate:"required"`
	UserID              string             `json:"userId" validate:"required"`
	Status              RegistrationStatus `json:"status"`
	NumberOfGuests      int                `json:"numberOfGuests" validate:"min=0,max=10"`
	SpecialRequirements string             `json:"specialRequirements"`
	Notes               string             `json:"notes"`
}

// BulkRegistrationRequest is the admin payload for bulk status updates and
// deletions over a set of registration IDs.
type BulkRegistrationRequest struct {
	RegistrationIDs []string           `json:"registrationIds" validate:"required,min=1"`
	Action          string             `json:"action" validate:"required,oneof=updateStatus delete"`
	NewStatus       RegistrationStatus `json:"newStatus"`
}

// UserRegistrationFilter narrows the self-service registration listing.
type UserRegistrationFilter struct {
	Status       RegistrationStatus
	UpcomingOnly bool
}

// AdminRegistrationFilter narrows and pages the admin registration listing.
type AdminRegistrationFilter struct {
	EventID string
	Status  RegistrationStatus
	Page    int
	Limit   int
}

// Pagination is the envelope describing one page of an admin listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// RegistrationOutcome is returned by the register flow. Message tells the
// caller whether they were registered or waitlisted; a full event demotes
// silently rather than erroring.
type RegistrationOutcome struct {
	Registration *Registration `json:"registration"`
	Message      string        `json:"message"`
}

// EventRegistrationsSummary is the staff/admin roster view for one event.
type EventRegistrationsSummary struct {
	Registrations  []RegistrationDetail       `json:"registrations"`
	CountsByStatus map[RegistrationStatus]int `json:"countsByStatus"`
	SpotsRemaining *int                       `json:"spotsRemaining"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// DuplicateDetails surfaces the existing registration when a duplicate
// attempt is rejected.
type DuplicateDetails struct {
	CurrentStatus RegistrationStatus `json:"currentStatus"`
	RegisteredAt  time.Time          `json:"registeredAt"`
}
