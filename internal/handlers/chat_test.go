package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"support_back_end/internal/models"
)

func msgAt(id, sender string, at time.Time) models.ChatMessage {
	return models.ChatMessage{ID: id, Sender: sender, CreatedAt: at}
}

func TestCountUnreadForAdmin(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	req := &models.HelpRequest{ID: "r1", CreatedAt: t0}

	t1 := t0.Add(10 * time.Minute) // réponse admin
	t2 := t0.Add(5 * time.Minute)  // message client avant la réponse
	t3 := t0.Add(20 * time.Minute) // message client après la réponse

	msgs := []models.ChatMessage{
		msgAt("m1", models.SenderCustomer, t2),
		msgAt("m2", models.SenderAdmin, t1),
		msgAt("m3", models.SenderCustomer, t3),
	}

	// Seul le message postérieur à la dernière réponse admin compte
	if got := countUnreadForAdmin(req, msgs); got != 1 {
		t.Errorf("non-lus = %d, attendu 1", got)
	}
}

func TestCountUnreadForAdmin_NoAdminReply(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	req := &models.HelpRequest{ID: "r1", CreatedAt: t0}

	msgs := []models.ChatMessage{
		msgAt("m1", models.SenderCustomer, t0.Add(time.Minute)),
		msgAt("m2", models.SenderCustomer, t0.Add(2*time.Minute)),
	}

	if got := countUnreadForAdmin(req, msgs); got != 2 {
		t.Errorf("non-lus = %d, attendu 2", got)
	}
}

func TestCountUnreadForAdmin_Empty(t *testing.T) {
	req := &models.HelpRequest{ID: "r1", CreatedAt: time.Now()}
	if got := countUnreadForAdmin(req, nil); got != 0 {
		t.Errorf("non-lus = %d, attendu 0", got)
	}
}

func TestResolveSender(t *testing.T) {
	customerEmail := "a@b.com"

	t.Run("admin gagne toujours", func(t *testing.T) {
		sender, senderID, ok := resolveSender(true, "admin-1", "autre@exemple.com", customerEmail)
		if !ok || sender != models.SenderAdmin {
			t.Fatalf("attendu admin, obtenu %q (ok=%v)", sender, ok)
		}
		if senderID == nil || *senderID != "admin-1" {
			t.Errorf("sender_id admin attendu, obtenu %v", senderID)
		}
	})

	t.Run("email correspondant, casse ignorée", func(t *testing.T) {
		sender, senderID, ok := resolveSender(false, "", "A@B.COM", customerEmail)
		if !ok || sender != models.SenderCustomer {
			t.Fatalf("attendu customer, obtenu %q (ok=%v)", sender, ok)
		}
		if senderID != nil {
			t.Error("sender_id doit être nul pour un client")
		}
	})

	t.Run("email non correspondant refusé", func(t *testing.T) {
		if _, _, ok := resolveSender(false, "", "pirate@exemple.com", customerEmail); ok {
			t.Error("un email différent ne doit pas être autorisé")
		}
	})

	t.Run("aucune identité refusée", func(t *testing.T) {
		if _, _, ok := resolveSender(false, "", "", customerEmail); ok {
			t.Error("sans token ni email, accès refusé")
		}
	})
}

func TestMessagesAfter(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	msgs := []models.ChatMessage{
		msgAt("m1", models.SenderCustomer, base),
		msgAt("m2", models.SenderAdmin, base.Add(time.Second)),
		msgAt("m3", models.SenderCustomer, base.Add(2*time.Second)),
	}

	t.Run("seuls les plus récents que le dernier émis passent", func(t *testing.T) {
		out := messagesAfter(msgs, "m1", base)
		if len(out) != 2 || out[0].ID != "m2" || out[1].ID != "m3" {
			t.Errorf("attendu [m2 m3], obtenu %+v", out)
		}
	})

	t.Run("rien de nouveau", func(t *testing.T) {
		out := messagesAfter(msgs, "m3", base.Add(2*time.Second))
		if len(out) != 0 {
			t.Errorf("attendu aucun message, obtenu %d", len(out))
		}
	})

	t.Run("égalité d'horodatage départagée par l'id", func(t *testing.T) {
		tied := []models.ChatMessage{
			msgAt("m1", models.SenderCustomer, base),
			msgAt("m2", models.SenderAdmin, base), // même horodatage
		}
		out := messagesAfter(tied, "m1", base)
		if len(out) != 1 || out[0].ID != "m2" {
			t.Errorf("attendu [m2], obtenu %+v", out)
		}
	})

	t.Run("curseur vide émet tout", func(t *testing.T) {
		out := messagesAfter(msgs, "", time.Time{})
		if len(out) != 3 {
			t.Errorf("attendu 3 messages, obtenu %d", len(out))
		}
	})
}

func noMessages(context.Context) ([]models.ChatMessage, error) { return nil, nil }

func TestRunFeed_StopsWhenKeepaliveFails(t *testing.T) {
	// Un fil sans nouveau message ne produit aucune écriture : seul le
	// keepalive peut révéler un client parti et arrêter la boucle
	done := make(chan struct{})
	go func() {
		defer close(done)
		runFeed(t.Context(), time.Millisecond, noMessages,
			func(models.ChatMessage) error { return nil },
			func() error { return errors.New("client parti") })
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("la boucle doit s'arrêter quand le keepalive échoue")
	}
}

func TestRunFeed_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan struct{})
	go func() {
		defer close(done)
		runFeed(ctx, time.Millisecond, noMessages,
			func(models.ChatMessage) error { return nil },
			func() error { return nil })
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("la boucle doit s'arrêter à l'annulation du contexte")
	}
}

func TestRunFeed_StopsOnFetchError(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		runFeed(t.Context(), time.Millisecond,
			func(context.Context) ([]models.ChatMessage, error) {
				return nil, errors.New("stockage indisponible")
			},
			func(models.ChatMessage) error { return nil },
			func() error { return nil })
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("la boucle doit s'arrêter sur une erreur de lecture")
	}
}

func TestRunFeed_EmitsOnlyNewMessages(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m1 := msgAt("m1", models.SenderCustomer, base)
	m2 := msgAt("m2", models.SenderAdmin, base.Add(time.Second))
	m3 := msgAt("m3", models.SenderCustomer, base.Add(2*time.Second))

	// Premier tour : deux messages existent déjà ; ensuite m3 arrive
	calls := 0
	fetch := func(context.Context) ([]models.ChatMessage, error) {
		calls++
		if calls == 1 {
			return []models.ChatMessage{m1, m2}, nil
		}
		return []models.ChatMessage{m1, m2, m3}, nil
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		runFeed(ctx, time.Millisecond, fetch,
			func(m models.ChatMessage) error {
				got = append(got, m.ID)
				if m.ID == "m3" {
					cancel()
				}
				return nil
			},
			func() error { return nil })
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("la boucle ne s'est pas arrêtée")
	}

	// Pas de replay de l'historique : seul le dernier message existant au
	// premier tour, puis uniquement les nouveaux
	if len(got) != 2 || got[0] != "m2" || got[1] != "m3" {
		t.Errorf("messages émis %v, attendu [m2 m3]", got)
	}
}
