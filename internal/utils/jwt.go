package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims : contenu du token d'accès admin (courte durée)
type AccessClaims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// GenerateAccessToken émet un token d'accès signé HS256 pour un admin
func GenerateAccessToken(adminID, email string, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email: email,
		Type:  "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAccessToken valide un token d'accès (signature, expiration, type)
func ParseAccessToken(tokenString, secret string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("méthode de signature inattendue")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalide")
	}
	if claims.Type != "access" {
		return nil, errors.New("mauvais type de token")
	}
	return claims, nil
}
