package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"support_back_end/internal/config"
)

// Client : accès à l'API d'administration de la boutique (commandes,
// annulations, remboursements) — construit une fois et injecté
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL: fmt.Sprintf("https://%s/admin/api/%s", cfg.ShopDomain, cfg.ShopAPIVersion),
		token:   cfg.ShopToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// newClientForTest permet de pointer le client vers un serveur de test
func newClientForTest(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      "test-token",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// doJSON exécute une requête JSON et décode la réponse dans out.
// Toute réponse non-2xx devient un ProviderError structuré.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorBody(resp.StatusCode, respBody)
	}

	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}
