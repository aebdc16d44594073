package models

import "time"

// Expéditeurs possibles d'un message de chat
const (
	SenderCustomer = "customer"
	SenderAdmin    = "admin"
)

type ChatMessage struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	Sender         string    `json:"sender"`
	SenderID       *string   `json:"sender_id,omitempty"` // null pour un client
	Body           *string   `json:"body,omitempty"`
	AttachmentURL  *string   `json:"attachment_url,omitempty"`
	AttachmentName *string   `json:"attachment_name,omitempty"`
	AttachmentType *string   `json:"attachment_type,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
