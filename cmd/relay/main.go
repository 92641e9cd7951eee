package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vobaolong/shopify-be-sub001/internal/config"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/kafka"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
	"github.com/vobaolong/shopify-be-sub001/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Relay] %v", err)
	}
	if err := cfg.RequireKafka(); err != nil {
		log.Fatalf("[Relay] %v", err)
	}

	log.Println("[Relay] ========================================")
	log.Println("[Relay] Marketplace - Outbox Relay")
	log.Println("[Relay] ========================================")
	log.Printf("[Relay] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Relay] Topic: %s", cfg.KafkaTopic)

	db, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Relay] Failed to connect to database: %v", err)
	}
	defer db.Close()

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	relay := worker.NewRelay(db, producer, cfg.OutboxInterval, cfg.OutboxBatchSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.Start(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Relay] Shutting down...")
	cancel()
	<-done
}
