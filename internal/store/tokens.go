package store

import (
	"context"
	"errors"
	"time"

	"support_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenStore struct{ db *pgxpool.Pool }

func NewTokenStore(db *pgxpool.Pool) *TokenStore { return &TokenStore{db: db} }

func (s *TokenStore) Create(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, token_hash, user_id, expires_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), tokenHash, userID, expiresAt)
	return err
}

// GetByHash : recherche par hash du token présenté — nil si inconnu
func (s *TokenStore) GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := s.db.QueryRow(ctx, `
		SELECT id, token_hash, user_id, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(&t.ID, &t.TokenHash, &t.UserID, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Revoke marque le token révoqué — idempotent, un hash inconnu n'est pas une erreur
func (s *TokenStore) Revoke(ctx context.Context, tokenHash string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`, tokenHash)
	return err
}
