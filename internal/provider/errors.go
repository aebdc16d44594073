package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrOrderNotFound : la commande n'existe pas chez le provider — ce n'est
// jamais une erreur de transport
var ErrOrderNotFound = errors.New("commande introuvable chez le provider")

// ValidationError : entrée invalide détectée avant tout appel au provider
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ProviderError : rejet côté provider — le statut HTTP permet de distinguer
// une faute du client (422) d'une panne de transport
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider a répondu %d: %s", e.Status, e.Message)
}

// parseErrorBody extrait le message d'erreur du corps de réponse :
// champ "error" en priorité, puis "errors.base", puis la map "errors"
// aplatie, sinon le corps brut
func parseErrorBody(status int, body []byte) *ProviderError {
	msg := strings.TrimSpace(string(body))

	var payload struct {
		Error  string          `json:"error"`
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			msg = payload.Error
		} else if len(payload.Errors) > 0 {
			msg = flattenErrors(payload.Errors, msg)
		}
	}

	return &ProviderError{Status: status, Message: msg}
}

func flattenErrors(raw json.RawMessage, fallback string) string {
	// "errors" peut être une simple chaîne
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || len(m) == 0 {
		return fallback
	}

	if base, ok := m["base"]; ok {
		if msg := stringifyErrorValue(base); msg != "" {
			return msg
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if msg := stringifyErrorValue(m[k]); msg != "" {
			parts = append(parts, k+": "+msg)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, "; ")
}

func stringifyErrorValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return strings.TrimSpace(string(raw))
}
