package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-insight-api/internal/models"
)

// ChatHistoryRepository persists conversation transcripts.
type ChatHistoryRepository struct {
	db *sqlx.DB
}

// NewChatHistoryRepository constructs the repository.
func NewChatHistoryRepository(db *sqlx.DB) *ChatHistoryRepository {
	return &ChatHistoryRepository{db: db}
}

// Insert stores one transcript row.
func (r *ChatHistoryRepository) Insert(ctx context.Context, record *models.ChatHistory) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO chat_history (id, user_id, message, response, session_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, record.ID, record.UserID, record.Message, record.Response, record.SessionID, record.CreatedAt); err != nil {
		return fmt.Errorf("insert chat history: %w", err)
	}
	return nil
}

// List returns transcripts newest first according to the filter: either one
// user's rows, or rows belonging to any student-role user.
func (r *ChatHistoryRepository) List(ctx context.Context, filter models.ChatHistoryFilter) ([]models.ChatHistory, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	var rows []models.ChatHistory
	if filter.UserID != "" {
		query := `SELECT ch.id, ch.user_id, ch.message, ch.response, ch.session_id, ch.created_at
FROM chat_history ch WHERE ch.user_id = $1 ORDER BY ch.created_at DESC LIMIT $2`
		if err := r.db.SelectContext(ctx, &rows, query, filter.UserID, limit); err != nil {
			return nil, fmt.Errorf("list chat history: %w", err)
		}
		return rows, nil
	}
	if filter.StudentOnly {
		query := `SELECT ch.id, ch.user_id, ch.message, ch.response, ch.session_id, ch.created_at
FROM chat_history ch JOIN users u ON u.id = ch.user_id
WHERE u.role = 'student' ORDER BY ch.created_at DESC LIMIT $1`
		if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
			return nil, fmt.Errorf("list student chat history: %w", err)
		}
		return rows, nil
	}
	query := `SELECT ch.id, ch.user_id, ch.message, ch.response, ch.session_id, ch.created_at
FROM chat_history ch ORDER BY ch.created_at DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("list chat history: %w", err)
	}
	return rows, nil
}

// Delete removes one transcript row, reporting whether it existed.
func (r *ChatHistoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_history WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete chat history %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete chat history %s: %w", id, err)
	}
	return affected > 0, nil
}
