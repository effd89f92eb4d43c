package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// ChatRepository persists chatbot exchanges via database/sql on Postgres.
type ChatRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *sql.DB, logger *logrus.Logger) *ChatRepository {
	return &ChatRepository{
		db:  db,
		log: logger,
	}
}

// CreateChatMessage stores one question/answer exchange.
func (r *ChatRepository) CreateChatMessage(ctx context.Context, message, response string) (*domain.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (message, response)
		VALUES ($1, $2)
		RETURNING id, message, response, created_at`

	var msg domain.ChatMessage
	err := r.db.QueryRowContext(ctx, query, message, response).
		Scan(&msg.ID, &msg.Message, &msg.Response, &msg.CreatedAt)
	if err != nil {
		r.log.WithError(err).Error("Failed to create chat message")
		return nil, fmt.Errorf("creating chat message: %w", err)
	}

	return &msg, nil
}

// ListChatMessages returns all exchanges, oldest first.
func (r *ChatRepository) ListChatMessages(ctx context.Context) ([]*domain.ChatMessage, error) {
	query := `
		SELECT id, message, response, created_at
		FROM chat_messages
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.Message, &msg.Response, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message row: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat message rows: %w", err)
	}

	return messages, nil
}
