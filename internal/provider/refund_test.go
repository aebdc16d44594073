package provider

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func txAmounts(t *testing.T, txs []Transaction) []float64 {
	t.Helper()
	out := make([]float64, len(txs))
	for i, tx := range txs {
		v, err := strconv.ParseFloat(tx.Amount, 64)
		if err != nil {
			t.Fatalf("montant illisible %q: %v", tx.Amount, err)
		}
		out[i] = v
	}
	return out
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

func TestReconcileTransactions_ScalesToManualAmount(t *testing.T) {
	suggested := []Transaction{
		{ParentID: 9001, Amount: "50.00", Gateway: "card", Kind: "suggested_refund"},
		{ParentID: 9002, Amount: "25.00", Gateway: "gift_card", Kind: "suggested_refund"},
	}
	manual := 60.0

	out := reconcileTransactions(suggested, &manual)
	if len(out) != 2 {
		t.Fatalf("attendu 2 transactions, obtenu %d", len(out))
	}

	amounts := txAmounts(t, out)
	if got := round2(sum(amounts)); got != manual {
		t.Errorf("somme %v, attendu %v", got, manual)
	}
	// scale = 0.8 : la structure par transaction est préservée
	if amounts[0] != 40.00 || amounts[1] != 20.00 {
		t.Errorf("montants %v, attendu [40 20]", amounts)
	}
	for _, tx := range out {
		if tx.Kind != "refund" {
			t.Errorf("kind %q, attendu refund", tx.Kind)
		}
	}
}

func TestReconcileTransactions_ResidualGoesToFirst(t *testing.T) {
	suggested := []Transaction{
		{ParentID: 1, Amount: "10.00", Gateway: "card"},
		{ParentID: 2, Amount: "10.00", Gateway: "card"},
		{ParentID: 3, Amount: "10.00", Gateway: "card"},
	}
	manual := 10.0

	out := reconcileTransactions(suggested, &manual)
	amounts := txAmounts(t, out)

	// 10/3 → 3.33 chacun, résidu de 0.01 sur la première
	if amounts[0] != 3.34 || amounts[1] != 3.33 || amounts[2] != 3.33 {
		t.Errorf("montants %v, attendu [3.34 3.33 3.33]", amounts)
	}
	if got := round2(sum(amounts)); got != manual {
		t.Errorf("somme %v, attendu %v", got, manual)
	}
}

func TestReconcileTransactions_IdentityWithinTolerance(t *testing.T) {
	suggested := []Transaction{
		{ParentID: 1, Amount: "49.999", Gateway: "card"},
	}
	manual := 50.0 // |50 − 49.999| ≤ 0.001 : aucun ajustement

	out := reconcileTransactions(suggested, &manual)
	if out[0].Amount != "50.00" {
		t.Errorf("montant %q, attendu 50.00 (49.999 reformaté, non mis à l'échelle)", out[0].Amount)
	}
}

func TestReconcileTransactions_NoManualAmount(t *testing.T) {
	suggested := []Transaction{
		{ParentID: 1, Amount: "12.34", Gateway: "card"},
	}

	out := reconcileTransactions(suggested, nil)
	if len(out) != 1 || out[0].Amount != "12.34" {
		t.Errorf("sans montant manuel les suggestions restent telles quelles: %+v", out)
	}
}

func TestReconcileTransactions_DropsIncompleteEntries(t *testing.T) {
	suggested := []Transaction{
		{ParentID: 0, Amount: "10.00", Gateway: "card"},  // parent manquant
		{ParentID: 2, Amount: "", Gateway: "card"},       // montant manquant
		{ParentID: 3, Amount: "10.00", Gateway: ""},      // gateway manquant
		{ParentID: 4, Amount: "n/a", Gateway: "card"},    // montant illisible
		{ParentID: 5, Amount: "10.00", Gateway: "card"},  // complète
	}
	manual := 5.0

	out := reconcileTransactions(suggested, &manual)
	if len(out) != 1 {
		t.Fatalf("attendu 1 transaction complète, obtenu %d", len(out))
	}
	if out[0].ParentID != 5 || out[0].Amount != "5.00" {
		t.Errorf("transaction %+v, attendu parent 5 à 5.00", out[0])
	}
}

func TestReconcileTransactions_ZeroSuggestedTotalSkipsScaling(t *testing.T) {
	suggested := []Transaction{
		{ParentID: 1, Amount: "0.00", Gateway: "card"},
	}
	manual := 25.0

	out := reconcileTransactions(suggested, &manual)
	if out[0].Amount != "0.00" {
		t.Errorf("total suggéré nul : montants gardés tels quels, obtenu %q", out[0].Amount)
	}
}

func TestReconcileTransactions_FirstClampedToZero(t *testing.T) {
	suggested := []Transaction{
		{ParentID: 1, Amount: "0.004", Gateway: "card"},
		{ParentID: 2, Amount: "1.01", Gateway: "card"},
		{ParentID: 3, Amount: "1.01", Gateway: "card"},
		{ParentID: 4, Amount: "1.01", Gateway: "card"},
	}
	manual := 1.52

	out := reconcileTransactions(suggested, &manual)
	amounts := txAmounts(t, out)

	// Le résidu négatif ferait passer la première transaction sous zéro :
	// elle est bornée à 0
	if amounts[0] != 0 {
		t.Errorf("première transaction %v, attendu 0 (bornée)", amounts[0])
	}
	for _, a := range amounts {
		if a < 0 {
			t.Errorf("montant négatif interdit: %v", a)
		}
	}
}

func TestReconcileTransactions_EmptySet(t *testing.T) {
	manual := 10.0
	out := reconcileTransactions(nil, &manual)
	if len(out) != 0 {
		t.Errorf("attendu aucun résultat, obtenu %d", len(out))
	}
}

// ---------------------------------------------------------------------------
// Flux complet contre un provider simulé
// ---------------------------------------------------------------------------

type fakeShop struct {
	t             *testing.T
	order         Order
	suggested     []Transaction
	createdRefund *Refund // capture du payload de création
	calculateHits int
	createHits    int
}

func (f *fakeShop) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /orders/42.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"order": f.order})
	})
	mux.HandleFunc("GET /orders.json", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "1001" {
			json.NewEncoder(w).Encode(map[string]any{"orders": []Order{f.order}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"orders": []Order{}})
	})
	mux.HandleFunc("POST /orders/42/refunds/calculate.json", func(w http.ResponseWriter, r *http.Request) {
		f.calculateHits++
		json.NewEncoder(w).Encode(map[string]any{"refund": Refund{
			Currency:        "EUR",
			Shipping:        json.RawMessage(`{"amount":"4.90","full_refund":false}`),
			RefundLineItems: json.RawMessage(`[{"line_item_id":111,"quantity":1}]`),
			Transactions:    f.suggested,
			ID:              777,
			OrderID:         42,
			CreatedAt:       "2024-01-01T00:00:00Z",
		}})
	})
	mux.HandleFunc("POST /orders/42/refunds.json", func(w http.ResponseWriter, r *http.Request) {
		f.createHits++
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Refund Refund `json:"refund"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			f.t.Fatalf("payload de création illisible: %v", err)
		}
		f.createdRefund = &payload.Refund
		json.NewEncoder(w).Encode(map[string]any{"refund": Refund{ID: 888}})
	})

	return mux
}

func newFakeShop(t *testing.T) (*fakeShop, *Client) {
	f := &fakeShop{
		t: t,
		order: Order{
			ID:   42,
			Name: "#1001",
			LineItems: []LineItem{
				{ID: 111, Title: "Article A", Quantity: 2, Price: "30.00"},
				{ID: 222, Title: "Article B", Quantity: 1, Price: "15.00"},
			},
		},
		suggested: []Transaction{
			{ParentID: 9001, Amount: "50.00", Gateway: "card", Kind: "suggested_refund"},
			{ParentID: 9002, Amount: "25.00", Gateway: "gift_card", Kind: "suggested_refund"},
		},
	}

	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	return f, newClientForTest(srv.URL)
}

func TestRefundPartialOrder_ClampsQuantities(t *testing.T) {
	f, client := newFakeShop(t)

	// Quantité demandée 5 > quantité commandée 2 : écrêtée, pas refusée
	_, err := client.RefundPartialOrder(t.Context(), 42,
		[]RefundLineItem{{LineItemID: 111, Quantity: 5}},
		RefundOptions{Note: "geste commercial"})
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if f.calculateHits != 1 || f.createHits != 1 {
		t.Errorf("calculate/create: %d/%d, attendu 1/1", f.calculateHits, f.createHits)
	}
}

func TestRefundPartialOrder_UnknownLineItem(t *testing.T) {
	f, client := newFakeShop(t)

	_, err := client.RefundPartialOrder(t.Context(), 42,
		[]RefundLineItem{{LineItemID: 999, Quantity: 1}}, RefundOptions{})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("attendu ValidationError pour une ligne inconnue, obtenu %v", err)
	}
	if f.createHits != 0 {
		t.Errorf("aucune création ne doit partir après une validation échouée")
	}
}

func TestRefundPartialOrder_AllZeroQuantities(t *testing.T) {
	_, client := newFakeShop(t)

	_, err := client.RefundPartialOrder(t.Context(), 42,
		[]RefundLineItem{{LineItemID: 111, Quantity: 0}, {LineItemID: 222, Quantity: 0}},
		RefundOptions{})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("attendu ValidationError pour des quantités toutes nulles, obtenu %v", err)
	}
}

func TestRefundPartialOrder_EmptyLineItems(t *testing.T) {
	f, client := newFakeShop(t)

	// Une liste vide est refusée — elle ne doit jamais dégénérer en
	// remboursement total implicite
	_, err := client.RefundPartialOrder(t.Context(), 42, nil, RefundOptions{})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("attendu ValidationError pour une liste de lignes vide, obtenu %v", err)
	}
	if f.calculateHits != 0 || f.createHits != 0 {
		t.Errorf("aucun appel provider ne doit partir pour une liste vide (calculate=%d, create=%d)",
			f.calculateHits, f.createHits)
	}
}

func TestRefundPartialOrder_NonPositiveManualAmount(t *testing.T) {
	_, client := newFakeShop(t)

	manual := -1.0
	_, err := client.RefundPartialOrder(t.Context(), 42,
		[]RefundLineItem{{LineItemID: 111, Quantity: 1}},
		RefundOptions{ManualAmount: &manual})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("attendu ValidationError pour un montant manuel négatif, obtenu %v", err)
	}
}

func TestRefundFullOrder_CreatePayload(t *testing.T) {
	f, client := newFakeShop(t)

	manual := 60.0
	_, err := client.RefundFullOrder(t.Context(), 42, "remboursement intégral", &manual)
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}

	created := f.createdRefund
	if created == nil {
		t.Fatal("aucun payload de création capturé")
	}

	// Les champs d'identité du calcul ne sont pas réémis
	if created.ID != 0 || created.OrderID != 0 || created.CreatedAt != "" {
		t.Errorf("champs d'identité non retirés: id=%d order_id=%d created_at=%q",
			created.ID, created.OrderID, created.CreatedAt)
	}
	// Les champs calculés par le provider sont conservés tels quels
	if len(created.Shipping) == 0 || len(created.RefundLineItems) == 0 {
		t.Error("shipping/refund_line_items du calcul doivent être préservés")
	}
	if created.Note != "remboursement intégral" {
		t.Errorf("note %q non transmise", created.Note)
	}

	amounts := txAmounts(t, created.Transactions)
	if got := round2(sum(amounts)); got != manual {
		t.Errorf("les transactions créées totalisent %v, attendu %v", got, manual)
	}
	for _, tx := range created.Transactions {
		if tx.Kind != "refund" {
			t.Errorf("kind %q, attendu refund", tx.Kind)
		}
	}
}

func TestResolveOrder_Normalization(t *testing.T) {
	_, client := newFakeShop(t)

	for _, input := range []string{"#1001", "1001", " 1001 "} {
		t.Run(input, func(t *testing.T) {
			order, err := client.ResolveOrder(t.Context(), input)
			if err != nil {
				t.Fatalf("résolution de %q: %v", input, err)
			}
			if order.ID != 42 {
				t.Errorf("commande %d, attendu 42", order.ID)
			}
		})
	}
}

func TestResolveOrder_NotFound(t *testing.T) {
	_, client := newFakeShop(t)

	_, err := client.ResolveOrder(t.Context(), "#9999")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("attendu ErrOrderNotFound, obtenu %v", err)
	}
}
