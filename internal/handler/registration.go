package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/captainsofcommerce/events-api/internal/auth"
	"github.com/captainsofcommerce/events-api/internal/model"
	"github.com/captainsofcommerce/events-api/internal/repository"
	"github.com/captainsofcommerce/events-api/internal/service"
)

// RegistrationHandler holds the HTTP handlers for self-service
// registration and the staff roster view.
type RegistrationHandler struct {
	svc *service.RegistrationService
	log *logrus.Logger
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(svc *service.RegistrationService, log *logrus.Logger) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, log: log}
}

// Register handles POST /events/{id}/register
// A full event adds the caller to the waitlist instead of rejecting; the
// response message says which happened.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	eventID := chi.URLParam(r, "id")

	outcome, err := h.svc.Register(r.Context(), eventID, claims.Subject)
	if err != nil {
		var dup *service.DuplicateRegistrationError
		switch {
		case errors.As(err, &dup):
			writeErrorDetails(w, http.StatusConflict, "Already registered for this event", dup.Details)
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Event not found")
		case errors.Is(err, repository.ErrEventNotPublished):
			writeError(w, http.StatusBadRequest, "Event is not published")
		case errors.Is(err, service.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeInternalError(w, h.log, "register for event", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, outcome)
}

// Unregister handles DELETE /events/{id}/register
// Hard-deletes the caller's registration; vacating a REGISTERED slot
// promotes the oldest waitlisted entry before the response is returned.
func (h *RegistrationHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	eventID := chi.URLParam(r, "id")

	promoted, err := h.svc.Unregister(r.Context(), eventID, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Registration not found")
			return
		}
		writeInternalError(w, h.log, "unregister from event", err)
		return
	}
	if promoted != nil {
		h.log.WithFields(logrus.Fields{
			"event":    eventID,
			"promoted": promoted.UserID,
		}).Info("waitlist promotion")
	}
	w.WriteHeader(http.StatusNoContent)
}

// Roster handles GET /events/{id}/register (staff/admin)
// Returns the registration list plus counts by status and remaining spots.
func (h *RegistrationHandler) Roster(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	summary, err := h.svc.EventRoster(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		writeInternalError(w, h.log, "event roster", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListMine handles GET /user/registrations
// Supports status and upcoming query filters.
func (h *RegistrationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	q := r.URL.Query()
	filter := model.UserRegistrationFilter{
		UpcomingOnly: q.Get("upcoming") == "true",
	}
	if status := q.Get("status"); status != "" && status != "all" {
		filter.Status = model.RegistrationStatus(status)
	}

	regs, err := h.svc.ListForUser(r.Context(), claims.Subject, filter)
	if err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, h.log, "list user registrations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"registrations": regs,
		"count":         len(regs),
	})
}
