package models

import (
	"strings"
	"time"
)

// Statuts d'une demande d'assistance
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusCompleted  = "completed"
)

// Types de demande
const (
	TypeCancel   = "cancel"
	TypeReturn   = "return"
	TypeRefund   = "refund"
	TypeExchange = "exchange"
)

// OpenStatuses : statuts considérés comme "en cours" — une seule demande
// ouverte par numéro de commande (contrainte en base, pas seulement ici)
var OpenStatuses = []string{StatusPending, StatusInProgress, StatusApproved}

type HelpRequest struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	CustomerEmail  string     `json:"customer_email"`
	CustomerPhone  *string    `json:"customer_phone,omitempty"`
	CustomerName   string     `json:"customer_name"`
	OrderNumber    string     `json:"order_number"`
	Reason         *string    `json:"reason,omitempty"`
	ShopifyOrderID *int64     `json:"shopify_order_id,omitempty"`
	AdminNotes     *string    `json:"admin_notes,omitempty"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	ProcessedBy    *string    `json:"processed_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ReferenceCode retourne le code de référence lisible montré au client
// (dérivé de l'ID, jamais stocké)
func (r HelpRequest) ReferenceCode() string {
	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// IsOpen indique si la demande est encore en cours de traitement
func (r HelpRequest) IsOpen() bool {
	return r.Status != StatusCompleted && r.Status != StatusRejected
}

func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

func IsValidType(s string) bool {
	switch s {
	case TypeCancel, TypeReturn, TypeRefund, TypeExchange:
		return true
	}
	return false
}
