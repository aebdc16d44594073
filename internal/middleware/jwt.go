package middleware

import (
	"log"
	"net/http"
	"strings"

	"support_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// bearerToken extrait le token du header Authorization, ou du paramètre
// "token" si allowQuery est vrai (EventSource ne peut pas poser de header)
func bearerToken(c *gin.Context, allowQuery bool) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if allowQuery {
		return c.Query("token")
	}
	return ""
}

// AdminClaims tente de valider un token d'accès admin sur la requête.
// allowQuery n'est accordé qu'aux lectures du chat, jamais aux écritures.
func AdminClaims(c *gin.Context, secret string, allowQuery bool) *utils.AccessClaims {
	token := bearerToken(c, allowQuery)
	if token == "" {
		return nil
	}
	claims, err := utils.ParseAccessToken(token, secret)
	if err != nil {
		return nil
	}
	return claims
}

// AuthRequired protège les routes admin : token d'accès valide obligatoire
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token manquant"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Format Authorization invalide"})
			c.Abort()
			return
		}

		claims, err := utils.ParseAccessToken(parts[1], secret)
		if err != nil {
			log.Printf("❌ Erreur parsing JWT: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			c.Abort()
			return
		}

		c.Set("admin_id", claims.Subject)
		c.Set("admin_email", claims.Email)
		c.Next()
	}
}
