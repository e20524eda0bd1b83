package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/captainsofcommerce/events-api/internal/model"
)

// CommentService orchestrates event comments.
type CommentService struct {
	comments CommentStore
	events   EventStore
}

// NewCommentService constructs a CommentService with its dependencies.
func NewCommentService(comments CommentStore, events EventStore) *CommentService {
	return &CommentService{comments: comments, events: events}
}

// AddComment creates a comment on an existing event. Content is trimmed
// and must be non-empty; comments are immutable once created.
func (s *CommentService) AddComment(ctx context.Context, eventID, userID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidArgument)
	}

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.comments.Create(ctx, eventID, userID, content)
}

// ListComments returns an event's comments, newest first.
func (s *CommentService) ListComments(ctx context.Context, eventID string) ([]model.Comment, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}
