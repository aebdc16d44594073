package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
)

// Transaction : une transaction de remboursement telle que suggérée puis
// renvoyée au provider
type Transaction struct {
	ParentID int64  `json:"parent_id,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Gateway  string `json:"gateway,omitempty"`
	Kind     string `json:"kind,omitempty"`
}

// Refund : payload de calcul/création. Les champs que nous ne touchons pas
// (shipping, refund_line_items, duties) sont conservés tels quels via
// RawMessage pour être réémis sans altération à la création.
type Refund struct {
	ID              int64           `json:"id,omitempty"`
	OrderID         int64           `json:"order_id,omitempty"`
	UserID          int64           `json:"user_id,omitempty"`
	Note            string          `json:"note,omitempty"`
	Currency        string          `json:"currency,omitempty"`
	Shipping        json.RawMessage `json:"shipping,omitempty"`
	RefundLineItems json.RawMessage `json:"refund_line_items,omitempty"`
	Duties          json.RawMessage `json:"duties,omitempty"`
	Transactions    []Transaction   `json:"transactions,omitempty"`
	CreatedAt       string          `json:"created_at,omitempty"`
	ProcessedAt     string          `json:"processed_at,omitempty"`
}

type RefundLineItem struct {
	LineItemID  int64  `json:"line_item_id"`
	Quantity    int    `json:"quantity"`
	RestockType string `json:"restock_type,omitempty"`
}

type RefundOptions struct {
	RestockType  string
	Note         string
	ManualAmount *float64
}

type shippingSpec struct {
	FullRefund bool `json:"full_refund"`
}

type refundCalculation struct {
	Currency        string           `json:"currency,omitempty"`
	Shipping        *shippingSpec    `json:"shipping,omitempty"`
	RefundLineItems []RefundLineItem `json:"refund_line_items,omitempty"`
}

// RefundFullOrder rembourse l'intégralité de la commande (toutes les lignes
// + frais de port), avec montant manuel optionnel
func (c *Client) RefundFullOrder(ctx context.Context, orderID int64, note string, manualAmount *float64) (*Refund, error) {
	if manualAmount != nil && *manualAmount <= 0 {
		return nil, newValidationError("le montant manuel doit être strictement positif")
	}

	order, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var items []RefundLineItem
	for _, li := range order.LineItems {
		if li.Quantity > 0 {
			items = append(items, RefundLineItem{LineItemID: li.ID, Quantity: li.Quantity})
		}
	}

	calc := refundCalculation{
		Shipping:        &shippingSpec{FullRefund: true},
		RefundLineItems: items,
	}
	return c.executeRefund(ctx, orderID, calc, note, manualAmount)
}

// RefundPartialOrder rembourse un sous-ensemble de lignes. Chaque quantité
// demandée est écrêtée à la quantité de la ligne sur la commande ; une ligne
// inconnue est une erreur (jamais ignorée en silence).
func (c *Client) RefundPartialOrder(ctx context.Context, orderID int64, requested []RefundLineItem, opts RefundOptions) (*Refund, error) {
	if opts.ManualAmount != nil && *opts.ManualAmount <= 0 {
		return nil, newValidationError("le montant manuel doit être strictement positif")
	}
	if len(requested) == 0 {
		return nil, newValidationError("au moins une ligne est requise pour un remboursement partiel")
	}

	order, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]LineItem, len(order.LineItems))
	for _, li := range order.LineItems {
		byID[li.ID] = li
	}

	var items []RefundLineItem
	for _, req := range requested {
		line, ok := byID[req.LineItemID]
		if !ok {
			return nil, newValidationError("la ligne %d n'existe pas sur la commande", req.LineItemID)
		}

		qty := req.Quantity
		if qty > line.Quantity {
			qty = line.Quantity
		}
		if qty <= 0 {
			continue
		}

		item := RefundLineItem{LineItemID: req.LineItemID, Quantity: qty}
		if opts.RestockType != "" {
			item.RestockType = opts.RestockType
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, newValidationError("aucune ligne avec une quantité positive après écrêtage")
	}

	calc := refundCalculation{RefundLineItems: items}
	return c.executeRefund(ctx, orderID, calc, opts.Note, opts.ManualAmount)
}

// executeRefund : calcul chez le provider, réconciliation des transactions
// avec le montant manuel, puis création
func (c *Client) executeRefund(ctx context.Context, orderID int64, calc refundCalculation, note string, manualAmount *float64) (*Refund, error) {
	calculated, err := c.calculateRefund(ctx, orderID, calc)
	if err != nil {
		return nil, err
	}

	transactions := reconcileTransactions(calculated.Transactions, manualAmount)

	payload := buildCreatePayload(calculated, note, transactions)
	created, err := c.createRefund(ctx, orderID, payload)
	if err != nil {
		return nil, err
	}

	log.Printf("💰 Remboursement créé: commande %d, refund %d", orderID, created.ID)
	return created, nil
}

func (c *Client) calculateRefund(ctx context.Context, orderID int64, calc refundCalculation) (*Refund, error) {
	var payload struct {
		Refund Refund `json:"refund"`
	}
	path := fmt.Sprintf("/orders/%d/refunds/calculate.json", orderID)
	if err := c.doJSON(ctx, "POST", path, map[string]any{"refund": calc}, &payload); err != nil {
		return nil, err
	}
	return &payload.Refund, nil
}

func (c *Client) createRefund(ctx context.Context, orderID int64, payload Refund) (*Refund, error) {
	var out struct {
		Refund Refund `json:"refund"`
	}
	path := fmt.Sprintf("/orders/%d/refunds.json", orderID)
	if err := c.doJSON(ctx, "POST", path, map[string]any{"refund": payload}, &out); err != nil {
		return nil, err
	}
	return &out.Refund, nil
}

// reconcileTransactions ajuste la ventilation suggérée par le provider pour
// qu'elle totalise exactement le montant manuel demandé, en préservant la
// structure par transaction :
//   - les entrées incomplètes (parent, montant ou gateway manquant) sont écartées
//   - si |manuel − total suggéré| ≤ 0.001, aucun ajustement (cas identité)
//   - sinon chaque montant est multiplié par manuel/total puis arrondi à 2
//     décimales ; le résidu d'arrondi est ajouté en entier à la première
//     transaction (borné à ≥ 0) — l'erreur d'arrondi est concentrée sur une
//     seule transaction, de façon déterministe
//   - si le total suggéré vaut 0, rien à mettre à l'échelle : les montants
//     suggérés sont gardés tels quels
func reconcileTransactions(suggested []Transaction, manualAmount *float64) []Transaction {
	type parsedTx struct {
		tx     Transaction
		amount float64
	}

	var kept []parsedTx
	total := 0.0
	for _, tx := range suggested {
		if tx.ParentID == 0 || tx.Amount == "" || tx.Gateway == "" {
			continue
		}
		amount, err := strconv.ParseFloat(tx.Amount, 64)
		if err != nil {
			continue
		}
		kept = append(kept, parsedTx{tx: tx, amount: amount})
		total += amount
	}

	amounts := make([]float64, len(kept))
	for i := range kept {
		amounts[i] = kept[i].amount
	}

	if manualAmount != nil && len(kept) > 0 && total != 0 && math.Abs(*manualAmount-total) > 0.001 {
		scale := *manualAmount / total

		sumScaled := 0.0
		for i := range amounts {
			amounts[i] = round2(amounts[i] * scale)
			sumScaled += amounts[i]
		}

		// Le résidu d'arrondi va intégralement sur la première transaction
		diff := round2(*manualAmount - sumScaled)
		if diff != 0 {
			amounts[0] = round2(amounts[0] + diff)
			if amounts[0] < 0 {
				amounts[0] = 0
			}
		}
	}

	out := make([]Transaction, 0, len(kept))
	for i, p := range kept {
		out = append(out, Transaction{
			ParentID: p.tx.ParentID,
			Amount:   formatAmount(amounts[i]),
			Gateway:  p.tx.Gateway,
			Kind:     "refund",
		})
	}
	return out
}

// buildCreatePayload repart du payload calculé entier (shipping, duties et
// refund_line_items conservés), remplace note et transactions, et retire les
// champs d'identité qui ne doivent pas être renvoyés
func buildCreatePayload(calculated *Refund, note string, transactions []Transaction) Refund {
	payload := *calculated
	payload.ID = 0
	payload.OrderID = 0
	payload.UserID = 0
	payload.CreatedAt = ""
	payload.ProcessedAt = ""
	payload.Note = note

	// Ensemble vide : champ omis pour laisser le provider appliquer son défaut
	payload.Transactions = transactions

	return payload
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func formatAmount(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
