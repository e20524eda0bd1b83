package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/captainsofcommerce/events-api/internal/model"
	"github.com/captainsofcommerce/events-api/internal/repository"
	"github.com/captainsofcommerce/events-api/internal/service"
)

// AdminHandler holds the HTTP handlers for registration management.
type AdminHandler struct {
	svc *service.RegistrationService
	log *logrus.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc *service.RegistrationService, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: log}
}

// ManualRegister handles POST /admin/registrations/manual (staff/admin)
// Registers a user on their behalf with a staff-chosen status.
func (h *AdminHandler) ManualRegister(w http.ResponseWriter, r *http.Request) {
	var req model.ManualRegistrationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.svc.ManualRegister(r.Context(), req)
	if err != nil {
		var dup *service.DuplicateRegistrationError
		switch {
		case errors.As(err, &dup):
			writeErrorDetails(w, http.StatusBadRequest, "User is already registered for this event", dup.Details)
		case errors.Is(err, repository.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Event not found")
		case errors.Is(err, service.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeInternalError(w, h.log, "manual registration", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"registration": reg,
		"message":      "Successfully registered user for event",
	})
}

// List handles GET /admin/registrations (staff/admin)
// Paginated listing with eventId and status filters.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.AdminRegistrationFilter{
		EventID: q.Get("eventId"),
	}
	if status := q.Get("status"); status != "" && status != "all" {
		filter.Status = model.RegistrationStatus(status)
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	regs, pagination, err := h.svc.ListAdmin(r.Context(), filter)
	if err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, h.log, "list admin registrations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"registrations": regs,
		"pagination":    pagination,
	})
}

// Bulk handles PATCH /admin/registrations (admin)
// Applies a bulk status update or delete to a set of registration IDs.
func (h *AdminHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req model.BulkRegistrationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	affected, err := h.svc.BulkUpdate(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, h.log, "bulk registration update", err)
		return
	}

	verb := "updated"
	if req.Action == "delete" {
		verb = "deleted"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       fmt.Sprintf("Successfully %s %d registrations", verb, affected),
		"affectedCount": affected,
	})
}
