package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comparateur/internal/config"
	httpapi "comparateur/internal/http"
	"comparateur/internal/repository"
	"comparateur/internal/service"
)

func main() {
	cfg := config.Load()
	if err := cfg.ValidateMock(); err != nil {
		log.Fatalf("config: %v", err)
	}

	store := repository.NewMemoryStore()
	svc := service.NewServices(store, cfg.MockSecret, cfg.MockTokenTTL)

	if cfg.MockSeedPath != "" {
		f, err := os.Open(cfg.MockSeedPath)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		seed, err := service.LoadSeed(f)
		f.Close()
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		if err := seed.Apply(context.Background(), svc); err != nil {
			log.Fatalf("seed: %v", err)
		}
		log.Printf("seeded from %s", cfg.MockSeedPath)
	}

	srv := httpapi.NewServer(svc)

	httpServer := &http.Server{
		Addr:    cfg.MockAddr,
		Handler: srv.Engine(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
