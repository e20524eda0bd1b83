package handler

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/captainsofcommerce/events-api/internal/auth"
	"github.com/captainsofcommerce/events-api/internal/service"
)

// UserHandler holds the HTTP handlers for identity-provider account sync.
type UserHandler struct {
	svc *service.UserService
	log *logrus.Logger
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc *service.UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// Sync handles POST /auth/sync
// Called by the web client after the login callback; idempotently upserts
// the local account from the verified token claims.
func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	user, err := h.svc.SyncUser(r.Context(), claims.Subject, claims.Email, claims.FirstName, claims.LastName)
	if err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, h.log, "sync user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
