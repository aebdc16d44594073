package store

import (
	"context"
	"errors"
	"strings"

	"support_back_end/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminStore struct{ db *pgxpool.Pool }

func NewAdminStore(db *pgxpool.Pool) *AdminStore { return &AdminStore{db: db} }

// GetByEmail : l'email est unique en base de manière insensible à la casse
func (s *AdminStore) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var a models.AdminUser
	err := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, name, is_active, created_at
		FROM admin_users
		WHERE LOWER(email) = LOWER($1)
	`, strings.TrimSpace(email)).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *AdminStore) GetByID(ctx context.Context, id string) (*models.AdminUser, error) {
	var a models.AdminUser
	err := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, name, is_active, created_at
		FROM admin_users
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
