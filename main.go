package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/stevenalfofficial/emby-keeper/config"
	"github.com/stevenalfofficial/emby-keeper/emby"
	"github.com/stevenalfofficial/emby-keeper/events"
	"github.com/stevenalfofficial/emby-keeper/metrics"
	"github.com/stevenalfofficial/emby-keeper/services"
	"github.com/stevenalfofficial/emby-keeper/tokens"
)

func main() {
	// Initialize context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize config
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	if err := config.Initialize(env); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	cfg := config.Get()

	// Generate a unique ID for this keeper instance
	instanceID := uuid.New().String()
	log.Printf("Starting emby-keeper instance with ID: %s", instanceID)

	// --- Token Store Initialization ---
	var store tokens.Store
	switch strings.ToLower(cfg.Tokens.Backend) {
	case "file":
		store = tokens.NewFileStore(cfg.Emby.Basedir)
	case "redis":
		redisClient, err := services.NewRedisClient(cfg.Tokens.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis for token store: %v", err)
		}
		defer services.CloseRedisClient(redisClient)
		store = tokens.NewRedisStore(redisClient, time.Duration(cfg.Tokens.TTL)*time.Second)
	default:
		// This should be caught by config validation, but we check again as a safeguard.
		log.Fatalf("Invalid token backend specified: %s", cfg.Tokens.Backend)
	}
	// --- End of Token Store Initialization ---

	// Create connector
	connector, err := emby.NewConnector(&cfg.Emby, &cfg.Pool, store)
	if err != nil {
		log.Fatalf("Failed to create Emby connector: %v", err)
	}

	// --- Event Publisher Initialization ---
	switch strings.ToLower(cfg.Events.Type) {
	case "none":
	case "redis":
		redisClient, err := services.NewRedisClient(cfg.Events.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis for event publishing: %v", err)
		}
		defer services.CloseRedisClient(redisClient)
		connector.SetPublisher(events.NewRedisPublisher(redisClient, cfg.Events.Channel, instanceID))
	case "kafka":
		publisher, err := events.NewKafkaPublisher(cfg.Events.Kafka.Brokers, cfg.Events.Kafka.Topic, instanceID)
		if err != nil {
			log.Fatalf("Failed to create Kafka event publisher: %v", err)
		}
		defer publisher.Close()
		connector.SetPublisher(publisher)
	default:
		log.Fatalf("Invalid events type specified: %s", cfg.Events.Type)
	}
	// --- End of Event Publisher Initialization ---

	if cfg.Metrics.Enabled {
		metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// Start the session pool watchdog
	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		connector.Run(ctx)
	}()

	// Periodic keep-alive probe loop
	go probeLoop(ctx, connector, time.Duration(cfg.Pool.IdleTimeout)*time.Second)

	log.Printf("Emby keeper started against %s", connector.Host())

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received")

	// Graceful shutdown: cancel the watchdog and wait for the drain.
	cancel()
	select {
	case <-watchdogDone:
	case <-time.After(10 * time.Second):
		log.Println("Timed out waiting for session drain")
	}
}

// probeLoop keeps the backend session warm by probing on a fixed interval.
func probeLoop(ctx context.Context, connector *emby.Connector, interval time.Duration) {
	probeCtx := emby.WithContextID(ctx, "keepalive")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := connector.Get(probeCtx, "/System/Info", nil); err != nil {
				log.Printf("Keep-alive probe failed: %v", err)
				continue
			}
			if err := connector.ProbeWebSocket(probeCtx); err != nil {
				log.Printf("Websocket probe failed: %v", err)
			}
		}
	}
}
