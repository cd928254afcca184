package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"pulse-monitor/internal/emulator"
)

func main() {
	addr := getEnvString("EMULATOR_ADDR", ":9100")
	rateMS := getEnvInt("EMULATOR_RATE_MS", 1000)
	jitterMS := getEnvInt("EMULATOR_JITTER_MS", 50)

	cfg := emulator.DefaultConfig()
	cfg.BaseHR = getEnvInt("EMULATOR_BASE_HR", cfg.BaseHR)
	cfg.BaseSpO2 = getEnvInt("EMULATOR_BASE_SPO2", cfg.BaseSpO2)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("[FATAL] Failed to listen on %s: %v", addr, err)
	}

	log.Printf("[INFO] Device emulator listening on %s, rate=%dms", addr, rateMS)

	ctx, cancel := context.WithCancel(context.Background())

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdownChan
		log.Printf("[INFO] Received signal %v, stopping emulator", sig)
		cancel()
	}()

	server := emulator.NewServer(cfg,
		time.Duration(rateMS)*time.Millisecond,
		time.Duration(jitterMS)*time.Millisecond)

	if err := server.Serve(ctx, listener); err != nil {
		log.Fatalf("[FATAL] Emulator error: %v", err)
	}

	log.Printf("[INFO] Emulator stopped")
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
