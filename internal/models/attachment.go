package models

import "time"

// Attachment : métadonnées d'une pièce jointe — les octets vivent dans MinIO,
// l'enregistrement sert à régénérer des URLs signées à la demande
type Attachment struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	Bucket      string    `json:"-"`
	ObjectKey   string    `json:"-"`
	URL         string    `json:"url"`
	SignedURL   string    `json:"signed_url,omitempty"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}
