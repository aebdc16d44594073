package handlers

import (
	"log"
	"net/http"
	"time"

	"support_back_end/internal/config"
	"support_back_end/internal/store"
	"support_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler : émission et renouvellement des credentials admin
type AuthHandler struct {
	admins *store.AdminStore
	tokens *store.TokenStore
	cfg    config.Config
}

func NewAuthHandler(admins *store.AdminStore, tokens *store.TokenStore, cfg config.Config) *AuthHandler {
	return &AuthHandler{admins: admins, tokens: tokens, cfg: cfg}
}

type loginBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login : vérifie le mot de passe et émet un couple access/refresh.
// Seul le hash du refresh token est persisté.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email et mot de passe requis"})
		return
	}

	admin, err := h.admins.GetByEmail(c.Request.Context(), body.Email)
	if err != nil {
		log.Printf("❌ Erreur lecture admin: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}
	if admin == nil || !admin.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	valid, err := utils.VerifyPassword(body.Password, admin.PasswordHash)
	if err != nil || !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	accessToken, err := utils.GenerateAccessToken(admin.ID, admin.Email, h.cfg.JWTSecret, h.cfg.AccessTokenExpiry)
	if err != nil {
		log.Printf("❌ Erreur génération access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		log.Printf("❌ Erreur génération refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	expiresAt := time.Now().Add(h.cfg.RefreshTokenExpiry)
	if err := h.tokens.Create(c.Request.Context(), utils.HashToken(refreshToken), admin.ID, expiresAt); err != nil {
		log.Printf("❌ Erreur stockage refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	log.Printf("🔐 Connexion admin: %s", admin.Email)

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int64(h.cfg.AccessTokenExpiry.Seconds()),
		"token_type":    "Bearer",
		"user": gin.H{
			"user_id": admin.ID,
			"email":   admin.Email,
			"name":    admin.Name,
		},
	})
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh : renouvelle l'access token. Le refresh token n'est pas tourné —
// il reste valable jusqu'à logout ou expiration.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var body refreshBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token manquant"})
		return
	}

	stored, err := h.tokens.GetByHash(c.Request.Context(), utils.HashToken(body.RefreshToken))
	if err != nil {
		log.Printf("❌ Erreur lecture refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}
	if stored == nil || !stored.IsValid(time.Now()) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token invalide ou expiré"})
		return
	}

	admin, err := h.admins.GetByID(c.Request.Context(), stored.UserID)
	if err != nil {
		log.Printf("❌ Erreur lecture admin: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}
	if admin == nil || !admin.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Compte désactivé"})
		return
	}

	accessToken, err := utils.GenerateAccessToken(admin.ID, admin.Email, h.cfg.JWTSecret, h.cfg.AccessTokenExpiry)
	if err != nil {
		log.Printf("❌ Erreur génération access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"expires_in":   int64(h.cfg.AccessTokenExpiry.Seconds()),
		"token_type":   "Bearer",
	})
}

// Logout : révoque le refresh token — idempotent, un token inconnu répond
// quand même 200
func (h *AuthHandler) Logout(c *gin.Context) {
	var body refreshBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token manquant"})
		return
	}

	if err := h.tokens.Revoke(c.Request.Context(), utils.HashToken(body.RefreshToken)); err != nil {
		log.Printf("⚠️ Erreur révocation refresh token: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}
