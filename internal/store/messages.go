package store

import (
	"context"

	"support_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageStore struct{ db *pgxpool.Pool }

func NewMessageStore(db *pgxpool.Pool) *MessageStore { return &MessageStore{db: db} }

func (s *MessageStore) Create(ctx context.Context, m models.ChatMessage) (*models.ChatMessage, error) {
	m.ID = uuid.NewString()

	err := s.db.QueryRow(ctx, `
		INSERT INTO chat_messages (id, request_id, sender, sender_id, body, attachment_url, attachment_name, attachment_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, m.ID, m.RequestID, m.Sender, m.SenderID, m.Body,
		m.AttachmentURL, m.AttachmentName, m.AttachmentType).Scan(&m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByRequest : ordre chronologique, l'id départage les égalités d'horodatage
func (s *MessageStore) ListByRequest(ctx context.Context, requestID string) ([]models.ChatMessage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, request_id, sender, sender_id, body, attachment_url, attachment_name, attachment_type, created_at
		FROM chat_messages
		WHERE request_id = $1
		ORDER BY created_at ASC, id ASC
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.RequestID, &m.Sender, &m.SenderID, &m.Body,
			&m.AttachmentURL, &m.AttachmentName, &m.AttachmentType, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
