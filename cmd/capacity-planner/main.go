package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/capacity-planner/internal/config"
	"github.com/dimitrije/capacity-planner/internal/handlers"
	"github.com/dimitrije/capacity-planner/internal/services"
	"github.com/dimitrije/capacity-planner/internal/sse"
	"github.com/dimitrije/capacity-planner/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, release, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer release()

	hub := sse.NewHub()
	go hub.Run(ctx)

	store := services.NewStore(backend, services.StoreOptions{
		Policy:    cfg.SavePolicy,
		SaveDelay: cfg.SaveDebounce,
		Logger:    logger,
		OnSaveStatus: func(saving bool) {
			hub.Broadcast(sse.EventSaveStatus, sse.SaveStatusEvent{Saving: saving})
		},
		OnSaveError: func(err error) {
			hub.Broadcast(sse.EventSaveFailed, sse.SaveStatusEvent{Error: err.Error()})
		},
	})
	if err := store.Load(ctx); err != nil {
		log.Fatalf("Failed to load planner data: %v", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)

	router := handlers.NewRouter(handlers.RouterConfig{
		Store:      store,
		Hub:        hub,
		JWT:        jwtService,
		Thresholds: cfg.Thresholds,
		Release:    cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Closing the hub ends open event streams so Shutdown does not wait on them.
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("final save failed", "error", err)
	}
}
