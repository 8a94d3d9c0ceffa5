package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pantrychef/backend/config"
	"github.com/pantrychef/backend/internal/database"
	"github.com/pantrychef/backend/internal/queue"
	"github.com/pantrychef/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	clock := service.SystemClock()
	inference := service.NewInferenceClient(cfg)
	audit := service.NewAuditLog(db)
	guests := service.NewRedisGuestCounter(redisClient, clock)
	quota := service.NewQuotaGate(db, audit, guests, clock, cfg.FreeDailyLimit, cfg.GuestDailyLimit)
	cache := service.NewRedisRecipeCache(redisClient)
	notifier := service.NewEmailNotifier(cfg)
	generator := service.NewGenerator(db, inference, quota, cache, audit, notifier, clock)

	worker := queue.NewWorker(queue.NewRedisQueue(redisClient), generator, queue.DefaultRetryConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Printf("[Worker] Received signal: %v", sig)
		cancel()
	}()

	log.Println("[Worker] Consuming generation queue...")
	worker.Start(ctx)
	log.Println("[Worker] Stopped")
}
