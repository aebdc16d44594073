package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"support_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Délai accordé à l'écriture d'un ping avant de considérer le client parti
const wsPingTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

// StreamWS : même flux que Stream, transporté en WebSocket pour les clients
// qui le préfèrent au SSE. Même autorisation, même boucle de polling.
// La connexion étant détournée par l'upgrade, le contexte de la requête ne
// sera jamais annulé par la déconnexion du client : une pompe de lecture
// annule un contexte dérivé dès que la lecture échoue, et un ping part à
// chaque tour sans message pour détecter les clients partis silencieusement.
func (h *ChatHandler) StreamWS(c *gin.Context) {
	req, _, _, ok := h.authorize(c, true)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Pompe de lecture : consomme les trames de contrôle et signale la
	// fermeture du client en annulant le contexte de la boucle
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	conn.WriteJSON(gin.H{
		"type":    "connected",
		"message": "Connexion au fil établie",
	})

	runFeed(ctx, feedInterval,
		func(ctx context.Context) ([]models.ChatMessage, error) {
			return h.messages.ListByRequest(ctx, req.ID)
		},
		func(m models.ChatMessage) error {
			if err := conn.WriteJSON(gin.H{"type": "message", "message": m}); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return err
			}
			return nil
		},
		func() error {
			return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsPingTimeout))
		})
}
