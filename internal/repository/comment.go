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

// CommentRepository handles persistence for event comments.
type CommentRepository struct {
	db *pgxpool.Pool
}

// NewCommentRepository constructs a CommentRepository.
func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment and returns it with the author's name fields
// filled in.
func (r *CommentRepository) Create(ctx context.Context, eventID, userID, content string) (*model.Comment, error) {
	comment := &model.Comment{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO event_comments (id, event_id, user_id, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.EventID, comment.UserID, comment.Content, comment.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign key violation
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	err = r.db.QueryRow(ctx,
		`SELECT id, first_name, last_name FROM users WHERE id = $1`, userID,
	).Scan(&comment.User.ID, &comment.User.FirstName, &comment.User.LastName)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load comment author: %w", err)
	}
	return comment, nil
}

// ListByEvent returns an event's comments with author names, newest first.
func (r *CommentRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Comment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.event_id, c.user_id, c.content, c.created_at,
			u.id, u.first_name, u.last_name
		 FROM event_comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.event_id = $1
		 ORDER BY c.created_at DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(
			&c.ID, &c.EventID, &c.UserID, &c.Content, &c.CreatedAt,
			&c.User.ID, &c.User.FirstName, &c.User.LastName,
		); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
