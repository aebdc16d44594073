package models

import "time"

type AdminUser struct {
	ID           string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// RefreshToken : seul le hash du token est persisté, jamais le token brut
type RefreshToken struct {
	ID        string     `json:"id"`
	TokenHash string     `json:"-"`
	UserID    string     `json:"user_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsValid : un refresh token est utilisable s'il n'est ni révoqué ni expiré
func (t RefreshToken) IsValid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
