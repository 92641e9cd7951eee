package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vobaolong/shopify-be-sub001/internal/api"
	"github.com/vobaolong/shopify-be-sub001/internal/auth"
	"github.com/vobaolong/shopify-be-sub001/internal/command"
	"github.com/vobaolong/shopify-be-sub001/internal/config"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
	"github.com/vobaolong/shopify-be-sub001/internal/query"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] %v", err)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		log.Fatalf("[API] %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Marketplace - Order & Ledger API")
	log.Println("[API] ========================================")
	log.Printf("[API] Database: %s", cfg.DatabaseDriver)
	log.Printf("[API] Transition attempts: %d", cfg.TransitionMaxAttempts)

	db, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("[API] %v", err)
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, 15*time.Minute)
	cmdHandler := command.NewHandler(db, command.WithMaxAttempts(cfg.TransitionMaxAttempts))
	queryHandler := query.NewHandler(db)

	router := api.NewRouter(api.RouterConfig{
		Handlers:       api.NewHandlers(cmdHandler, queryHandler),
		JWTService:     jwtService,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}
