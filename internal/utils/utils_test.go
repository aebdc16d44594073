package utils

import (
	"testing"
	"time"
)

func TestNormalizeOrderNumber(t *testing.T) {
	cases := map[string]string{
		"#1001":   "1001",
		"1001":    "1001",
		" 1001 ":  "1001",
		" #1001 ": "1001",
		"# 1001":  "1001",
		"":        "",
	}
	for input, want := range cases {
		if got := NormalizeOrderNumber(input); got != want {
			t.Errorf("NormalizeOrderNumber(%q) = %q, attendu %q", input, got, want)
		}
	}
}

func TestParseExpiry(t *testing.T) {
	cases := map[string]time.Duration{
		"30d":     30 * 24 * time.Hour,
		"7d":      7 * 24 * time.Hour,
		"12h":     12 * time.Hour,
		"15m":     15 * time.Minute,
		" 45m ":   45 * time.Minute,
		"":        DefaultRefreshExpiry,
		"abc":     DefaultRefreshExpiry,
		"d":       DefaultRefreshExpiry,
		"-5d":     DefaultRefreshExpiry,
		"10x":     DefaultRefreshExpiry,
	}
	for input, want := range cases {
		if got := ParseExpiry(input); got != want {
			t.Errorf("ParseExpiry(%q) = %v, attendu %v", input, got, want)
		}
	}
}

func TestParseExpiryOr(t *testing.T) {
	// Le repli appartient à l'appelant : une TTL d'URL signée illisible ne
	// doit pas retomber sur les 30 jours du refresh token
	if got := ParseExpiryOr("n'importe quoi", 15*time.Minute); got != 15*time.Minute {
		t.Errorf("ParseExpiryOr invalide = %v, attendu 15m", got)
	}
	if got := ParseExpiryOr("2h", 15*time.Minute); got != 2*time.Hour {
		t.Errorf("ParseExpiryOr(\"2h\") = %v, attendu 2h", got)
	}
	if got := ParseExpiryOr("", time.Minute); got != time.Minute {
		t.Errorf("ParseExpiryOr vide = %v, attendu 1m", got)
	}
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("token-a")
	h2 := HashToken("token-a")
	h3 := HashToken("token-b")

	if h1 != h2 {
		t.Error("le hash doit être déterministe")
	}
	if h1 == h3 {
		t.Error("deux tokens différents ne doivent pas partager un hash")
	}
	if len(h1) != 64 { // SHA-256 en hex
		t.Errorf("longueur de hash %d, attendu 64", len(h1))
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	t1, err := GenerateRefreshToken()
	if err != nil {
		t.Fatal(err)
	}
	t2, err := GenerateRefreshToken()
	if err != nil {
		t.Fatal(err)
	}
	if t1 == t2 {
		t.Error("deux tokens générés ne doivent jamais être identiques")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatal(err)
	}

	ok, err := VerifyPassword("s3cret!", hash)
	if err != nil || !ok {
		t.Errorf("le bon mot de passe doit vérifier (ok=%v, err=%v)", ok, err)
	}

	ok, err = VerifyPassword("wrong", hash)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("un mauvais mot de passe ne doit pas vérifier")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	secret := "test-secret"

	token, err := GenerateAccessToken("admin-1", "ops@eldocam.com", secret, 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseAccessToken(token, secret)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "admin-1" || claims.Email != "ops@eldocam.com" {
		t.Errorf("claims inattendues: %+v", claims)
	}

	if _, err := ParseAccessToken(token, "autre-secret"); err == nil {
		t.Error("un token signé avec un autre secret doit être rejeté")
	}
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken("admin-1", "ops@eldocam.com", "s", -1*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseAccessToken(token, "s"); err == nil {
		t.Error("un token expiré doit être rejeté")
	}
}
