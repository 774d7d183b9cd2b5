package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jwebster45206/adventure-engine/internal/config"
	"github.com/jwebster45206/adventure-engine/internal/game"
	"github.com/jwebster45206/adventure-engine/internal/handlers"
	"github.com/jwebster45206/adventure-engine/internal/logger"
	"github.com/jwebster45206/adventure-engine/internal/middleware"
	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/services/events"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/content"
	"github.com/jwebster45206/adventure-engine/pkg/engine"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Adventure Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"textgen_provider", cfg.TextGenProvider,
		"save_backend", cfg.SaveBackend)

	tables := content.Default()
	if cfg.ContentPath != "" {
		tables, err = content.LoadFile(cfg.ContentPath)
		if err != nil {
			log.Error("Failed to load content tables", "path", cfg.ContentPath, "error", err)
			os.Exit(1)
		}
		log.Info("Loaded content tables", "path", cfg.ContentPath)
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	generator := services.NewTextGenerator(initCtx, cfg, tables, log)

	redisClient, err := storage.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Error("Invalid Redis configuration", "error", err)
		os.Exit(1)
	}
	sessions := storage.NewRedisSessionStore(redisClient, cfg.SessionTTL, log)

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := sessions.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to session store", "error", err)
		os.Exit(1)
	}
	log.Info("Session store connection established successfully")

	var saves storage.SaveStore
	switch cfg.SaveBackend {
	case config.SaveBackendSQLite:
		saves, err = storage.OpenSQLiteSaveStore(cfg.SQLitePath, log)
	default:
		saves, err = storage.NewFileSaveStore(cfg.SaveDir, log)
	}
	if err != nil {
		log.Error("Failed to open save store", "backend", cfg.SaveBackend, "error", err)
		os.Exit(1)
	}

	broadcaster := events.NewBroadcaster(redisClient, log)
	locker := storage.NewRedisLocker(redisClient, log).WithTTL(cfg.LockTTL())

	eng := engine.NewEngine(tables, generator, log)
	svc := game.NewService(eng, sessions, saves, locker, log).WithPublisher(broadcaster)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(sessions, generator.Primary().Name(), log)
	mux.Handle("/health", healthHandler)

	gameHandler := handlers.NewGameHandler(svc, log)
	mux.Handle("/v1/game", gameHandler)
	mux.Handle("/v1/game/", gameHandler)

	savesHandler := handlers.NewSavesHandler(svc, log)
	mux.Handle("/v1/saves", savesHandler)
	mux.Handle("/v1/saves/", savesHandler)

	mux.Handle("/v1/classes", handlers.NewClassesHandler(svc, log))
	mux.Handle("/v1/events/game/", handlers.NewEventsHandler(broadcaster, log))

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the event stream stays open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := generator.Close(); err != nil {
		log.Error("Error closing text generator", "error", err)
	}
	if err := saves.Close(); err != nil {
		log.Error("Error closing save store", "error", err)
	}
	// Closes the shared Redis client used by the locker and broadcaster too.
	if err := sessions.Close(); err != nil {
		log.Error("Error closing session store", "error", err)
	}

	log.Info("Server exited")
}
