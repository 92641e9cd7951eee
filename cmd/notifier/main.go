package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/vobaolong/shopify-be-sub001/internal/config"
	"github.com/vobaolong/shopify-be-sub001/internal/email"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/kafka"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
	"github.com/vobaolong/shopify-be-sub001/internal/notification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Notifier] %v", err)
	}
	if err := cfg.RequireKafka(); err != nil {
		log.Fatalf("[Notifier] %v", err)
	}

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] Marketplace - Order Email Notifier")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Notifier] Topic: %s", cfg.KafkaTopic)
	log.Printf("[Notifier] Group: %s", cfg.KafkaGroupID)
	log.Printf("[Notifier] SMTP: %s:%d", cfg.SMTPHost, cfg.SMTPPort)

	// Buyer contacts and order items come from the primary database.
	db, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Notifier] Failed to connect to database: %v", err)
	}
	defer db.Close()

	var opts []email.Option
	if cfg.SMTPUsername != "" {
		opts = append(opts, email.WithAuth(cfg.SMTPUsername, cfg.SMTPPassword))
	}
	emailSvc := email.NewService(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort), cfg.SMTPFrom, opts...)
	handler := notification.NewHandler(emailSvc, db)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("[Notifier] Listening to topic: %s", cfg.KafkaTopic)
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
			log.Printf("[Notifier] Consumer error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Notifier] Shutting down...")
	cancel()
	<-done
}
