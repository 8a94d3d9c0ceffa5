package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pantrychef/backend/config"
	"github.com/pantrychef/backend/internal/api"
	"github.com/pantrychef/backend/internal/database"
	"github.com/pantrychef/backend/internal/queue"
	"github.com/pantrychef/backend/internal/router"
	"github.com/pantrychef/backend/internal/service"
)

func main() {
	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to the database
	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Connect to Redis
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Wire up services
	clock := service.SystemClock()
	inference := service.NewInferenceClient(cfg)
	audit := service.NewAuditLog(db)
	guests := service.NewRedisGuestCounter(redisClient, clock)
	quota := service.NewQuotaGate(db, audit, guests, clock, cfg.FreeDailyLimit, cfg.GuestDailyLimit)
	cache := service.NewRedisRecipeCache(redisClient)
	notifier := service.NewEmailNotifier(cfg)
	generator := service.NewGenerator(db, inference, quota, cache, audit, notifier, clock)
	recipes := service.NewRecipeService(db, inference, clock)
	authService := service.NewAuthService(db, cfg.JWTSecret)
	generationQueue := queue.NewRedisQueue(redisClient)

	// Wire up handlers
	authHandler := api.NewAuthHandler(authService)
	generationHandler := api.NewGenerationHandler(generator, quota, inference, generationQueue, authService)
	recipeHandler := api.NewRecipeHandler(db, recipes, authService)

	engine := router.SetupRouter(authHandler, generationHandler, recipeHandler)

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
		Handler: engine,
	}

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s...", srv.Addr)
		errChan <- srv.ListenAndServe()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	// Gracefully shutdown the server
	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
