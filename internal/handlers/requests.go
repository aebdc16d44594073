package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"support_back_end/internal/models"
	"support_back_end/internal/services"
	"support_back_end/internal/store"

	"github.com/gin-gonic/gin"
)

// RequestHandler : cycle de vie des demandes d'assistance
type RequestHandler struct {
	requests    *store.RequestStore
	attachments *store.AttachmentStore
	storage     *services.Storage
	mailer      *services.Mailer
}

func NewRequestHandler(requests *store.RequestStore, attachments *store.AttachmentStore, storage *services.Storage, mailer *services.Mailer) *RequestHandler {
	return &RequestHandler{requests: requests, attachments: attachments, storage: storage, mailer: mailer}
}

type createRequestBody struct {
	Type          string  `json:"type" binding:"required"`
	CustomerEmail string  `json:"customer_email" binding:"required,email"`
	CustomerPhone *string `json:"customer_phone"`
	CustomerName  string  `json:"customer_name" binding:"required"`
	OrderNumber   string  `json:"order_number" binding:"required"`
	Reason        *string `json:"reason"`
}

// Create : soumission client — 409 si une demande est déjà ouverte pour la
// commande (la contrainte en base arbitre les soumissions concurrentes)
func (h *RequestHandler) Create(c *gin.Context) {
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	if !models.IsValidType(body.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type de demande invalide"})
		return
	}

	req, err := h.requests.Create(c.Request.Context(), store.CreateRequestInput{
		Type:          body.Type,
		CustomerEmail: body.CustomerEmail,
		CustomerPhone: body.CustomerPhone,
		CustomerName:  body.CustomerName,
		OrderNumber:   body.OrderNumber,
		Reason:        body.Reason,
	})
	if err != nil {
		if errors.Is(err, store.ErrOpenConflict) {
			c.JSON(http.StatusConflict, gin.H{
				"error":            "Une demande est déjà en cours pour cette commande",
				"has_open_request": true,
			})
			return
		}
		log.Printf("❌ Erreur création demande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création demande"})
		return
	}

	log.Printf("🆕 Demande créée: %s (commande %s)", req.ReferenceCode(), req.OrderNumber)

	// Notification best-effort : jamais sur le chemin critique de la réponse
	go h.mailer.NotifyAdminNewRequest(req)

	c.JSON(http.StatusCreated, gin.H{
		"request":        req,
		"reference_code": req.ReferenceCode(),
	})
}

// Check : vérification publique "une demande est-elle déjà ouverte ?"
func (h *RequestHandler) Check(c *gin.Context) {
	orderNumber := c.Query("order_number")
	if strings.TrimSpace(orderNumber) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_number requis"})
		return
	}

	open, err := h.requests.HasOpenRequest(c.Request.Context(), orderNumber)
	if err != nil {
		log.Printf("❌ Erreur vérification demande ouverte: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur vérification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"has_open_request": open})
}

// Status : suivi public du dernier statut pour une commande + email
func (h *RequestHandler) Status(c *gin.Context) {
	orderNumber := c.Query("order_number")
	email := c.Query("email")
	if strings.TrimSpace(orderNumber) == "" || strings.TrimSpace(email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_number et email requis"})
		return
	}

	req, err := h.requests.LatestByOrderAndEmail(c.Request.Context(), orderNumber, email)
	if err != nil {
		log.Printf("❌ Erreur recherche demande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche"})
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucune demande trouvée"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reference_code": req.ReferenceCode(),
		"type":           req.Type,
		"status":         req.Status,
		"created_at":     req.CreatedAt,
		"processed_at":   req.ProcessedAt,
	})
}

// List : liste filtrée pour les admins
func (h *RequestHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	requests, err := h.requests.List(c.Request.Context(), store.ListFilters{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Printf("❌ Erreur liste demandes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture demandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// Get : détail admin, avec URLs de lecture signées régénérées pour chaque
// pièce jointe
func (h *RequestHandler) Get(c *gin.Context) {
	id := c.Param("id")

	req, err := h.requests.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("❌ Erreur lecture demande %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture demande"})
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande introuvable"})
		return
	}

	attachments, err := h.attachments.ListByRequest(c.Request.Context(), id)
	if err != nil {
		log.Printf("❌ Erreur lecture pièces jointes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture pièces jointes"})
		return
	}

	for i := range attachments {
		signed, err := h.storage.PresignedGetURL(c.Request.Context(), attachments[i].ObjectKey)
		if err != nil {
			log.Printf("⚠️ URL signée indisponible pour %s: %v", attachments[i].ObjectKey, err)
			continue
		}
		attachments[i].SignedURL = signed
	}

	c.JSON(http.StatusOK, gin.H{
		"request":        req,
		"reference_code": req.ReferenceCode(),
		"attachments":    attachments,
	})
}

type patchRequestBody struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"admin_notes"`
}

// Patch : mise à jour admin (statut, notes). Le graphe de transitions est
// volontairement libre ; completed/rejected horodatent processed_at/by.
func (h *RequestHandler) Patch(c *gin.Context) {
	id := c.Param("id")

	var body patchRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if body.Status != nil && !models.IsValidStatus(*body.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut invalide"})
		return
	}

	var actingAdmin *string
	if adminID := c.GetString("admin_id"); adminID != "" {
		actingAdmin = &adminID
	}

	req, err := h.requests.Update(c.Request.Context(), id, store.UpdateRequestFields{
		Status:     body.Status,
		AdminNotes: body.AdminNotes,
	}, actingAdmin)
	if err != nil {
		log.Printf("❌ Erreur mise à jour demande %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour"})
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande introuvable"})
		return
	}

	if body.Status != nil {
		log.Printf("📋 Demande %s → statut %s", req.ReferenceCode(), req.Status)
		go h.mailer.NotifyCustomerStatusChange(req)
	}

	c.JSON(http.StatusOK, gin.H{"request": req})
}
