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

// CommentHandler holds the HTTP handlers for event comments.
type CommentHandler struct {
	svc *service.CommentService
	log *logrus.Logger
}

// NewCommentHandler constructs a CommentHandler.
func NewCommentHandler(svc *service.CommentService, log *logrus.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, log: log}
}

// List handles GET /events/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	comments, err := h.svc.ListComments(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		writeInternalError(w, h.log, "list comments", err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// Create handles POST /events/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	eventID := chi.URLParam(r, "id")

	var req model.CreateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	comment, err := h.svc.AddComment(r.Context(), eventID, claims.Subject, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, "Comment content is required")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Event not found")
		default:
			writeInternalError(w, h.log, "create comment", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
