package main

import (
	"context"
	"log"

	"github.com/pantrychef/backend/config"
	"github.com/pantrychef/backend/internal/database"
	"github.com/pantrychef/backend/internal/service"
)

// Runs one pass over pantry items and notifies owners about upcoming
// expirations. Intended to be scheduled daily.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sweep := service.NewPantrySweep(db, service.NewEmailNotifier(cfg), service.SystemClock())
	notified, err := sweep.Run(context.Background())
	if err != nil {
		log.Fatalf("[Sweep] Failed: %v", err)
	}
	log.Printf("[Sweep] Notified %d user(s)", notified)
}
