package utils

import "strings"

// NormalizeOrderNumber nettoie un numéro de commande saisi par le client :
// espaces et "#" de tête retirés — "#1001", "1001" et " 1001 " donnent "1001"
func NormalizeOrderNumber(orderNumber string) string {
	s := strings.TrimSpace(orderNumber)
	s = strings.TrimPrefix(s, "#")
	return strings.TrimSpace(s)
}
