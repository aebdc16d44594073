package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"support_back_end/internal/config"

	"github.com/minio/minio-go/v7"
)

// Préfixe des objets de pièces jointes dans le bucket
const attachmentPrefix = "help-requests"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Storage : génération d'URLs signées (lecture et écriture) sur MinIO
type Storage struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
	ttl      time.Duration
}

func NewStorage(client *minio.Client, cfg config.Config) *Storage {
	return &Storage{
		client:   client,
		bucket:   cfg.MinioBucket,
		endpoint: cfg.MinioEndpoint,
		useSSL:   cfg.MinioUseSSL,
		ttl:      cfg.SignedURLTTL,
	}
}

// SanitizeFilename remplace tout caractère hors [A-Za-z0-9._-] par "_"
func SanitizeFilename(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// BuildObjectKey : <prefix>/<requestId>/<epoch-millis>-<nom nettoyé>
func BuildObjectKey(requestID, fileName string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%d-%s", attachmentPrefix, requestID, now.UnixMilli(), SanitizeFilename(fileName))
}

// PublicURL : URL stable (non signée) persistée avec la pièce jointe
func (s *Storage) PublicURL(objectKey string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, objectKey)
}

// PresignedPutURL : URL d'écriture à durée limitée pour l'upload direct
func (s *Storage) PresignedPutURL(ctx context.Context, objectKey string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, objectKey, s.ttl)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// PresignedGetURL : URL de lecture à durée limitée, régénérée à la demande
func (s *Storage) PresignedGetURL(ctx context.Context, objectKey string) (string, error) {
	reqParams := make(url.Values)
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, s.ttl, reqParams)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
