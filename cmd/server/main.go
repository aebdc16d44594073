package main

import (
	"context"
	"log"
	"time"

	"support_back_end/internal/config"
	"support_back_end/internal/database"
	"support_back_end/internal/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clients, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Échec connexion aux services: %v", err)
	}
	defer clients.Close()

	r := gin.Default()
	routes.RegisterRoutes(r, cfg, clients)

	log.Println("🚀 Serveur support lancé sur le port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Erreur serveur: %v", err)
	}
}
