package store

import (
	"context"

	"support_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AttachmentStore struct{ db *pgxpool.Pool }

func NewAttachmentStore(db *pgxpool.Pool) *AttachmentStore { return &AttachmentStore{db: db} }

// Create : les pièces jointes sont en append-only, jamais modifiées
func (s *AttachmentStore) Create(ctx context.Context, a models.Attachment) (*models.Attachment, error) {
	a.ID = uuid.NewString()

	err := s.db.QueryRow(ctx, `
		INSERT INTO attachments (id, request_id, bucket, object_key, url, file_name, content_type, size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, a.ID, a.RequestID, a.Bucket, a.ObjectKey, a.URL, a.FileName, a.ContentType, a.Size).Scan(&a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByRequest retourne les pièces jointes par date de création croissante
func (s *AttachmentStore) ListByRequest(ctx context.Context, requestID string) ([]models.Attachment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, request_id, bucket, object_key, url, file_name, content_type, size, created_at
		FROM attachments
		WHERE request_id = $1
		ORDER BY created_at ASC
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.RequestID, &a.Bucket, &a.ObjectKey, &a.URL,
			&a.FileName, &a.ContentType, &a.Size, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
