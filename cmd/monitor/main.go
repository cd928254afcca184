package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"pulse-monitor/internal/api"
	"pulse-monitor/internal/config"
	"pulse-monitor/internal/device"
	"pulse-monitor/internal/discovery"
	obsmetrics "pulse-monitor/internal/observability/metrics"
	"pulse-monitor/internal/store"
	"pulse-monitor/internal/ws"
)

func main() {
	log.Printf("[INFO] Starting pulse monitor...")

	cfg := config.Load()
	log.Printf("[INFO] Configuration loaded: http_port=%s update_interval=%v",
		cfg.HTTPPort, cfg.UpdateInterval)

	obsmetrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := device.NewTCPTransport(cfg.DialTimeout, cfg.ReadTimeout)
	registry := device.NewRegistry(transport)

	known := make([]discovery.Device, 0, len(cfg.Devices))
	for _, slot := range cfg.Devices {
		if slot.Target == "" {
			log.Printf("[INFO] Device slot %d not configured, stays disconnected", slot.ID)
			continue
		}
		known = append(known, discovery.Device{ID: slot.Target, Name: slot.Name})
		if err := registry.Register(slot.ID, slot.Name, slot.Target); err != nil {
			log.Printf("[ERROR] Failed to register device %d: %v", slot.ID, err)
		}
	}

	scanner := discovery.NewCachedScanner(discovery.NewStaticScanner(known), 30*time.Second)

	hub := ws.NewHub()
	go hub.Run(ctx)
	go hub.Broadcaster(ctx, registry, cfg.UpdateInterval)

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		redisStore := store.NewRedisStore(client, cfg.SnapshotTTL)

		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisStore.Ping(pingCtx); err != nil {
			log.Printf("[WARN] Redis unavailable, state mirror disabled: %v", err)
		} else {
			log.Printf("[INFO] Mirroring device state to redis at %s", cfg.RedisAddr)
			go redisStore.Mirror(ctx, registry, cfg.MirrorInterval)
		}
		pingCancel()
	}

	registry.StartAll(ctx)

	router := mux.NewRouter()
	handler := api.NewHTTPHandler(ctx, registry, scanner)
	handler.RegisterRoutes(router)
	router.HandleFunc("/ws", hub.HandleWebSocket)
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: router,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("[INFO] HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		log.Printf("[ERROR] Server error: %v", err)

	case sig := <-shutdownChan:
		log.Printf("[INFO] Received signal %v, starting graceful shutdown...", sig)
	}

	registry.StopAll()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] HTTP shutdown error: %v", err)
	}

	log.Printf("[INFO] Server stopped")
}
