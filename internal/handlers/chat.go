package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"support_back_end/internal/middleware"
	"support_back_end/internal/models"
	"support_back_end/internal/services"
	"support_back_end/internal/store"

	"github.com/gin-gonic/gin"
)

// Intervalle de polling du fil de discussion
const feedInterval = 2 * time.Second

// ChatHandler : messages, compteur non-lus et flux temps réel d'une demande
type ChatHandler struct {
	requests *store.RequestStore
	messages *store.MessageStore
	mailer   *services.Mailer
	secret   string
}

func NewChatHandler(requests *store.RequestStore, messages *store.MessageStore, mailer *services.Mailer, jwtSecret string) *ChatHandler {
	return &ChatHandler{requests: requests, messages: messages, mailer: mailer, secret: jwtSecret}
}

// resolveSender décide qui parle : un token admin valide gagne toujours ;
// sinon l'email fourni doit correspondre à celui du client de la demande.
// Retourne ok=false si aucune des deux conditions n'est remplie.
func resolveSender(isAdmin bool, adminID, providedEmail, customerEmail string) (sender string, senderID *string, ok bool) {
	if isAdmin {
		return models.SenderAdmin, &adminID, true
	}
	if providedEmail != "" && strings.EqualFold(strings.TrimSpace(providedEmail), strings.TrimSpace(customerEmail)) {
		return models.SenderCustomer, nil, true
	}
	return "", nil, false
}

// countUnreadForAdmin : messages client postés après la dernière réponse
// admin (ou après la création de la demande s'il n'y a pas encore de réponse)
func countUnreadForAdmin(req *models.HelpRequest, msgs []models.ChatMessage) int {
	cutoff := req.CreatedAt
	for _, m := range msgs {
		if m.Sender == models.SenderAdmin && m.CreatedAt.After(cutoff) {
			cutoff = m.CreatedAt
		}
	}

	count := 0
	for _, m := range msgs {
		if m.Sender == models.SenderCustomer && m.CreatedAt.After(cutoff) {
			count++
		}
	}
	return count
}

// messagesAfter : messages strictement postérieurs au dernier émis
// (comparaison sur l'horodatage, l'id départage les égalités)
func messagesAfter(msgs []models.ChatMessage, lastID string, lastAt time.Time) []models.ChatMessage {
	var out []models.ChatMessage
	for _, m := range msgs {
		if m.ID == lastID {
			continue
		}
		if m.CreatedAt.After(lastAt) || (m.CreatedAt.Equal(lastAt) && m.ID > lastID) {
			out = append(out, m)
		}
	}
	return out
}

// authorize vérifie l'accès en lecture au fil : admin (header ou query pour
// les transports sans header) ou email du client en paramètre
func (h *ChatHandler) authorize(c *gin.Context, allowQueryToken bool) (*models.HelpRequest, string, *string, bool) {
	req, err := h.requests.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("❌ Erreur lecture demande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture demande"})
		return nil, "", nil, false
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande introuvable"})
		return nil, "", nil, false
	}

	claims := middleware.AdminClaims(c, h.secret, allowQueryToken)
	isAdmin := claims != nil
	adminID := ""
	if isAdmin {
		adminID = claims.Subject
	}

	sender, senderID, ok := resolveSender(isAdmin, adminID, c.Query("email"), req.CustomerEmail)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Accès non autorisé à cette conversation"})
		return nil, "", nil, false
	}
	return req, sender, senderID, true
}

// ListMessages : historique complet du fil
func (h *ChatHandler) ListMessages(c *gin.Context) {
	req, _, _, ok := h.authorize(c, true)
	if !ok {
		return
	}

	msgs, err := h.messages.ListByRequest(c.Request.Context(), req.ID)
	if err != nil {
		log.Printf("❌ Erreur lecture messages: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
		"count":    len(msgs),
	})
}

type postMessageBody struct {
	Email          string  `json:"email"`
	Body           *string `json:"body"`
	AttachmentURL  *string `json:"attachment_url"`
	AttachmentName *string `json:"attachment_name"`
	AttachmentType *string `json:"attachment_type"`
}

// PostMessage : un token admin (header uniquement — jamais en query pour une
// écriture) est attribué "admin", un email correspondant "customer"
func (h *ChatHandler) PostMessage(c *gin.Context) {
	req, err := h.requests.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("❌ Erreur lecture demande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture demande"})
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande introuvable"})
		return
	}

	var body postMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	claims := middleware.AdminClaims(c, h.secret, false)
	isAdmin := claims != nil
	adminID := ""
	if isAdmin {
		adminID = claims.Subject
	}

	sender, senderID, ok := resolveSender(isAdmin, adminID, body.Email, req.CustomerEmail)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Accès non autorisé à cette conversation"})
		return
	}

	trimmed := ""
	if body.Body != nil {
		trimmed = strings.TrimSpace(*body.Body)
	}
	if trimmed == "" && body.AttachmentURL == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Un message doit contenir un texte ou une pièce jointe"})
		return
	}

	var msgBody *string
	if trimmed != "" {
		msgBody = &trimmed
	}

	msg, err := h.messages.Create(c.Request.Context(), models.ChatMessage{
		RequestID:      req.ID,
		Sender:         sender,
		SenderID:       senderID,
		Body:           msgBody,
		AttachmentURL:  body.AttachmentURL,
		AttachmentName: body.AttachmentName,
		AttachmentType: body.AttachmentType,
	})
	if err != nil {
		log.Printf("❌ Erreur création message: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création message"})
		return
	}

	// Notification best-effort — une erreur d'envoi ne fait jamais échouer le post
	if trimmed != "" {
		if sender == models.SenderCustomer {
			go h.mailer.NotifyAdminNewMessage(req, trimmed)
		} else {
			go h.mailer.NotifyCustomerNewMessage(req, trimmed)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// UnreadCount : compteur de messages client non lus côté admin
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	req, err := h.requests.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("❌ Erreur lecture demande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture demande"})
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande introuvable"})
		return
	}

	msgs, err := h.messages.ListByRequest(c.Request.Context(), req.ID)
	if err != nil {
		log.Printf("❌ Erreur lecture messages: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": countUnreadForAdmin(req, msgs)})
}

// runFeed : boucle de polling commune aux transports du fil (SSE et
// WebSocket). Au premier tour, seul le dernier message existant est émis —
// pas de replay de l'historique ; ensuite, seuls les messages plus récents
// que le dernier émis partent sur le flux. Quand un tour n'a rien à envoyer,
// keepalive sonde le transport : son échec (client parti) termine la boucle,
// comme l'annulation du contexte ou une erreur de lecture.
func runFeed(ctx context.Context, interval time.Duration,
	fetch func(context.Context) ([]models.ChatMessage, error),
	emit func(models.ChatMessage) error,
	keepalive func() error) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastID string
	var lastAt time.Time
	first := true

	for {
		select {
		case <-ctx.Done():
			// Déconnexion client : on libère le timer et on ferme
			return
		case <-ticker.C:
			msgs, err := fetch(ctx)
			if err != nil {
				log.Printf("❌ Erreur polling messages: %v", err)
				return
			}

			var toSend []models.ChatMessage
			if first {
				first = false
				if len(msgs) > 0 {
					toSend = msgs[len(msgs)-1:]
				}
			} else {
				toSend = messagesAfter(msgs, lastID, lastAt)
			}

			for _, m := range toSend {
				if err := emit(m); err != nil {
					return
				}
				lastID, lastAt = m.ID, m.CreatedAt
			}
			if len(toSend) == 0 {
				if err := keepalive(); err != nil {
					return
				}
			}
		}
	}
}

// Stream : flux SSE du fil. À l'ouverture, un accusé de connexion est émis,
// puis la boucle de polling prend le relais (voir runFeed).
func (h *ChatHandler) Stream(c *gin.Context) {
	req, _, _, ok := h.authorize(c, true)
	if !ok {
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("connected", gin.H{"message": "Connexion au fil établie"})
	c.Writer.Flush()

	runFeed(c.Request.Context(), feedInterval,
		func(ctx context.Context) ([]models.ChatMessage, error) {
			return h.messages.ListByRequest(ctx, req.ID)
		},
		func(m models.ChatMessage) error {
			c.SSEvent("message", m)
			c.Writer.Flush()
			return nil
		},
		func() error {
			// Commentaire SSE : maintient la connexion ouverte à travers
			// les proxys sans rien livrer au client
			_, err := c.Writer.WriteString(": ping\n\n")
			c.Writer.Flush()
			return err
		})
}
