package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"support_back_end/internal/utils"
)

type LineItem struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

type Order struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	Currency  string     `json:"currency,omitempty"`
	Total     string     `json:"total_price,omitempty"`
	LineItems []LineItem `json:"line_items"`
}

// ResolveOrder retrouve la commande interne du provider à partir du numéro
// montré au client. Retourne ErrOrderNotFound si rien ne correspond —
// seule une panne de transport produit une autre erreur.
func (c *Client) ResolveOrder(ctx context.Context, orderNumber string) (*Order, error) {
	name := utils.NormalizeOrderNumber(orderNumber)
	if name == "" {
		return nil, ErrOrderNotFound
	}

	var payload struct {
		Orders []Order `json:"orders"`
	}
	path := "/orders.json?status=any&name=" + url.QueryEscape(name)
	if err := c.doJSON(ctx, "GET", path, nil, &payload); err != nil {
		return nil, err
	}

	// Correspondance exacte sur le nom, "#" ignoré — premier match retenu
	for i := range payload.Orders {
		if strings.TrimPrefix(payload.Orders[i].Name, "#") == name {
			return &payload.Orders[i], nil
		}
	}
	return nil, ErrOrderNotFound
}

// GetOrder récupère une commande par son id provider (pour l'UI de remboursement)
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	var payload struct {
		Order Order `json:"order"`
	}
	path := fmt.Sprintf("/orders/%d.json", orderID)
	if err := c.doJSON(ctx, "GET", path, nil, &payload); err != nil {
		var pErr *ProviderError
		if errors.As(err, &pErr) && pErr.Status == 404 {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &payload.Order, nil
}

// CancelOrder annule la commande chez le provider. Motif par défaut: "customer".
func (c *Client) CancelOrder(ctx context.Context, orderID int64, reason string) error {
	if strings.TrimSpace(reason) == "" {
		reason = "customer"
	}

	body := map[string]any{"reason": reason}
	path := fmt.Sprintf("/orders/%d/cancel.json", orderID)
	return c.doJSON(ctx, "POST", path, body, nil)
}
