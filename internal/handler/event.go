package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/captainsofcommerce/events-api/internal/auth"
	"github.com/captainsofcommerce/events-api/internal/model"
	"github.com/captainsofcommerce/events-api/internal/repository"
	"github.com/captainsofcommerce/events-api/internal/service"
)

// EventHandler holds the HTTP handlers for event CRUD.
type EventHandler struct {
	svc *service.EventService
	log *logrus.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, log *logrus.Logger) *EventHandler {
	return &EventHandler{svc: svc, log: log}
}

// List handles GET /events
// Supports type, startDate, endDate, and published query filters.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.EventFilter{
		EventType:     model.EventType(q.Get("type")),
		PublishedOnly: q.Get("published") == "true",
	}
	if filter.EventType != "" && !model.ValidEventType(filter.EventType) {
		writeError(w, http.StatusBadRequest, "unknown event type")
		return
	}
	if raw := q.Get("startDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "startDate must be RFC 3339")
			return
		}
		filter.StartAfter = &t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "endDate must be RFC 3339")
			return
		}
		filter.EndBefore = &t
	}

	events, err := h.svc.ListEvents(r.Context(), filter)
	if err != nil {
		writeInternalError(w, h.log, "list events", err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Get handles GET /events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		writeInternalError(w, h.log, "get event", err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Create handles POST /events (staff/admin)
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req, claims.Subject)
	if err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, h.log, "create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// Update handles PUT /events/{id} (staff/admin)
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req model.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Event not found")
		default:
			writeInternalError(w, h.log, "update event", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Delete handles DELETE /events/{id} (staff/admin)
// Deleting an event cascades to its registrations and comments.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteEvent(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		writeInternalError(w, h.log, "delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
