package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"support_back_end/internal/models"
	"support_back_end/internal/provider"
	"support_back_end/internal/store"

	"github.com/gin-gonic/gin"
)

// ProviderHandler : actions admin exécutées contre la plateforme de gestion
// de commandes. Un succès provider force le statut à completed — l'action
// externe fait foi, quel que soit le statut précédent.
type ProviderHandler struct {
	requests *store.RequestStore
	provider *provider.Client
}

func NewProviderHandler(requests *store.RequestStore, client *provider.Client) *ProviderHandler {
	return &ProviderHandler{requests: requests, provider: client}
}

// loadRequest charge la demande ou répond 404
func (h *ProviderHandler) loadRequest(c *gin.Context) *models.HelpRequest {
	req, err := h.requests.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("❌ Erreur lecture demande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture demande"})
		return nil
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande introuvable"})
		return nil
	}
	return req
}

// resolveOrderID retourne l'id provider déjà persisté, ou résout la commande
// à partir du numéro et le persiste
func (h *ProviderHandler) resolveOrderID(ctx context.Context, req *models.HelpRequest) (int64, error) {
	if req.ShopifyOrderID != nil {
		return *req.ShopifyOrderID, nil
	}

	order, err := h.provider.ResolveOrder(ctx, req.OrderNumber)
	if err != nil {
		return 0, err
	}

	if _, err := h.requests.Update(ctx, req.ID, store.UpdateRequestFields{ShopifyOrderID: &order.ID}, nil); err != nil {
		return 0, err
	}
	req.ShopifyOrderID = &order.ID
	return order.ID, nil
}

// respondProviderError : 404 pour une commande inconnue, 400 pour une entrée
// invalide, statut du provider conservé quand c'est une faute client
// (400/422), 500 pour tout le reste
func respondProviderError(c *gin.Context, err error) {
	if errors.Is(err, provider.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable chez le provider"})
		return
	}

	var vErr *provider.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
		return
	}

	var pErr *provider.ProviderError
	if errors.As(err, &pErr) {
		if pErr.Status == http.StatusBadRequest || pErr.Status == http.StatusUnprocessableEntity {
			c.JSON(pErr.Status, gin.H{"error": pErr.Message})
			return
		}
		log.Printf("❌ Erreur provider (%d): %s", pErr.Status, pErr.Message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur côté provider"})
		return
	}

	log.Printf("❌ Erreur provider: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur côté provider"})
}

// forceCompleted persiste le statut completed après une action provider réussie
func (h *ProviderHandler) forceCompleted(c *gin.Context, requestID string) *models.HelpRequest {
	var actingAdmin *string
	if adminID := c.GetString("admin_id"); adminID != "" {
		actingAdmin = &adminID
	}

	status := models.StatusCompleted
	req, err := h.requests.Update(c.Request.Context(), requestID, store.UpdateRequestFields{Status: &status}, actingAdmin)
	if err != nil {
		// L'action externe a réussi : on logge mais on ne la convertit pas en échec
		log.Printf("⚠️ Action provider réussie mais statut non persisté pour %s: %v", requestID, err)
		return nil
	}
	return req
}

// Lookup : résout et persiste la référence de commande du provider
func (h *ProviderHandler) Lookup(c *gin.Context) {
	req := h.loadRequest(c)
	if req == nil {
		return
	}

	order, err := h.provider.ResolveOrder(c.Request.Context(), req.OrderNumber)
	if err != nil {
		respondProviderError(c, err)
		return
	}

	if _, err := h.requests.Update(c.Request.Context(), req.ID, store.UpdateRequestFields{ShopifyOrderID: &order.ID}, nil); err != nil {
		log.Printf("❌ Erreur persistance référence commande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur persistance référence"})
		return
	}

	log.Printf("🔎 Commande résolue: %s → %d", req.OrderNumber, order.ID)
	c.JSON(http.StatusOK, gin.H{"order": order})
}

type cancelBody struct {
	Reason string `json:"reason"`
}

// Cancel : annulation chez le provider, puis statut forcé à completed
func (h *ProviderHandler) Cancel(c *gin.Context) {
	req := h.loadRequest(c)
	if req == nil {
		return
	}

	var body cancelBody
	_ = c.ShouldBindJSON(&body)

	orderID, err := h.resolveOrderID(c.Request.Context(), req)
	if err != nil {
		respondProviderError(c, err)
		return
	}

	if err := h.provider.CancelOrder(c.Request.Context(), orderID, body.Reason); err != nil {
		respondProviderError(c, err)
		return
	}

	log.Printf("🚫 Commande %d annulée (demande %s)", orderID, req.ReferenceCode())

	updated := h.forceCompleted(c, req.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Commande annulée",
		"request": updated,
	})
}

// OrderDetails : lignes de la commande pour l'UI de remboursement
func (h *ProviderHandler) OrderDetails(c *gin.Context) {
	req := h.loadRequest(c)
	if req == nil {
		return
	}

	orderID, err := h.resolveOrderID(c.Request.Context(), req)
	if err != nil {
		respondProviderError(c, err)
		return
	}

	order, err := h.provider.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondProviderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

type refundBody struct {
	Full         bool             `json:"full"`
	Items        []refundItemBody `json:"line_items"`
	RestockType  string           `json:"restock_type"`
	Note         string           `json:"note"`
	ManualAmount *float64         `json:"manual_amount"`
}

type refundItemBody struct {
	LineItemID int64 `json:"line_item_id"`
	Quantity   int   `json:"quantity"`
}

// Refund : remboursement total ou partiel, puis statut forcé à completed
func (h *ProviderHandler) Refund(c *gin.Context) {
	req := h.loadRequest(c)
	if req == nil {
		return
	}

	var body refundBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	orderID, err := h.resolveOrderID(c.Request.Context(), req)
	if err != nil {
		respondProviderError(c, err)
		return
	}

	// Un remboursement total doit être demandé explicitement : une liste de
	// lignes vide sans full est une erreur, jamais un total implicite
	var refund *provider.Refund
	if body.Full {
		refund, err = h.provider.RefundFullOrder(c.Request.Context(), orderID, body.Note, body.ManualAmount)
	} else {
		items := make([]provider.RefundLineItem, 0, len(body.Items))
		for _, it := range body.Items {
			items = append(items, provider.RefundLineItem{LineItemID: it.LineItemID, Quantity: it.Quantity})
		}
		refund, err = h.provider.RefundPartialOrder(c.Request.Context(), orderID, items, provider.RefundOptions{
			RestockType:  body.RestockType,
			Note:         body.Note,
			ManualAmount: body.ManualAmount,
		})
	}
	if err != nil {
		respondProviderError(c, err)
		return
	}

	updated := h.forceCompleted(c, req.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Remboursement traité avec succès",
		"refund":  refund,
		"request": updated,
	})
}
