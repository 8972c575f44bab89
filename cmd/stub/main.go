package main

import (
	"log"

	"shoplink/internal/devserver"
	"shoplink/internal/domain/entity"
	"shoplink/pkg/config"
	"shoplink/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	server := devserver.New()
	thread := server.SeedThread(
		entity.Participant{ID: "cust-1", Name: "Demo Customer"},
		entity.Participant{ID: "shop-1", Name: "Demo Shop"},
	)
	logger.Info("seeded demo thread %s (customer cust-1, shop shop-1)", thread.ID)

	if err := server.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
