package handlers

import (
	"log"
	"net/http"
	"time"

	"support_back_end/internal/models"
	"support_back_end/internal/services"
	"support_back_end/internal/store"

	"github.com/gin-gonic/gin"
)

// AttachmentHandler : génération d'URLs d'upload signées et enregistrement
// des métadonnées de pièces jointes
type AttachmentHandler struct {
	requests    *store.RequestStore
	attachments *store.AttachmentStore
	storage     *services.Storage
	bucket      string
}

func NewAttachmentHandler(requests *store.RequestStore, attachments *store.AttachmentStore, storage *services.Storage, bucket string) *AttachmentHandler {
	return &AttachmentHandler{requests: requests, attachments: attachments, storage: storage, bucket: bucket}
}

type uploadURLBody struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// UploadURL mint une URL d'écriture à durée limitée et crée l'enregistrement
// de pièce jointe. Le client uploade ensuite directement vers le stockage.
func (h *AttachmentHandler) UploadURL(c *gin.Context) {
	requestID := c.Param("id")

	req, err := h.requests.GetByID(c.Request.Context(), requestID)
	if err != nil {
		log.Printf("❌ Erreur lecture demande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture demande"})
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande introuvable"})
		return
	}

	var body uploadURLBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_name requis"})
		return
	}

	objectKey := services.BuildObjectKey(req.ID, body.FileName, time.Now())

	uploadURL, err := h.storage.PresignedPutURL(c.Request.Context(), objectKey)
	if err != nil {
		log.Printf("❌ Erreur génération URL d'upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération URL"})
		return
	}

	attachment, err := h.attachments.Create(c.Request.Context(), models.Attachment{
		RequestID:   req.ID,
		Bucket:      h.bucket,
		ObjectKey:   objectKey,
		URL:         h.storage.PublicURL(objectKey),
		FileName:    body.FileName,
		ContentType: body.ContentType,
		Size:        body.Size,
	})
	if err != nil {
		log.Printf("❌ Erreur enregistrement pièce jointe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement pièce jointe"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"upload_url": uploadURL,
		"attachment": attachment,
	})
}
