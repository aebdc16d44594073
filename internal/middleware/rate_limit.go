package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Durées de cooldown
const (
	LoginCooldown = 15 * time.Minute
	APICooldown   = 1 * time.Minute
)

// APIRateLimit limite le nombre de requêtes par IP (plafond configurable, par minute)
func APIRateLimit(rdb *redis.Client, maxRequests int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		ip := c.ClientIP()
		key := "api_requests:" + ip

		requests, _ := rdb.Get(ctx, key).Int()
		if requests >= maxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez dans 1 minute",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		pipe := rdb.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, APICooldown)
		pipe.Exec(ctx)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-requests-1))

		c.Next()
	}
}

// LoginRateLimit limite les tentatives de connexion par email, avec cooldown
// après trop d'échecs
func LoginRateLimit(rdb *redis.Client, maxAttempts int) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Lire le body sans le consommer
		bodyBytes, _ := io.ReadAll(c.Request.Body)

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			c.Next()
			return
		}

		// Remettre le body pour les handlers suivants
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		ctx := context.Background()
		key := "login_attempts:" + input.Email
		cooldownKey := "login_cooldown:" + input.Email

		if rdb.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := rdb.TTL(ctx, cooldownKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		attempts, _ := rdb.Get(ctx, key).Int()
		if attempts >= maxAttempts {
			rdb.Set(ctx, cooldownKey, "1", LoginCooldown)
			rdb.Del(ctx, key)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Compte bloqué pendant %d minutes", int(LoginCooldown.Minutes())),
				"retry_after": int(LoginCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()

		// Échec de login : incrémenter ; succès : réinitialiser
		if c.Writer.Status() == http.StatusUnauthorized {
			rdb.Incr(ctx, key)
			rdb.Expire(ctx, key, LoginCooldown)
		} else if c.Writer.Status() == http.StatusOK {
			rdb.Del(ctx, key)
			rdb.Del(ctx, cooldownKey)
		}
	}
}

// CreateRequestRateLimit limite les créations de demandes par IP (anti-spam
// sur un endpoint public)
func CreateRequestRateLimit(rdb *redis.Client, maxRequests int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		ip := c.ClientIP()
		key := "create_request:" + ip

		requests, _ := rdb.Get(ctx, key).Int()
		if requests >= maxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de demandes créées. Réessayez dans 1 minute",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		pipe := rdb.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, APICooldown)
		pipe.Exec(ctx)

		c.Next()
	}
}
