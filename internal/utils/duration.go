package utils

import (
	"strconv"
	"strings"
	"time"
)

// DefaultRefreshExpiry : durée par défaut si la config est illisible
const DefaultRefreshExpiry = 30 * 24 * time.Hour

// ParseExpiry lit une durée au format "<n>d", "<n>h" ou "<n>m"
// (ex: "30d", "12h", "15m") — retourne 30 jours si le format est invalide
func ParseExpiry(s string) time.Duration {
	return ParseExpiryOr(s, DefaultRefreshExpiry)
}

// ParseExpiryOr : même format, mais le repli est choisi par l'appelant —
// toutes les durées configurables n'ont pas vocation à retomber sur 30 jours
// (une URL signée, par exemple, doit rester courte)
func ParseExpiryOr(s string, fallback time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return fallback
	}

	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return fallback
	}

	switch unit {
	case 'd':
		return time.Duration(n) * 24 * time.Hour
	case 'h':
		return time.Duration(n) * time.Hour
	case 'm':
		return time.Duration(n) * time.Minute
	default:
		return fallback
	}
}
