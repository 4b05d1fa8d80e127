package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neuraforge/collab-gateway/internal/api"
	"github.com/neuraforge/collab-gateway/internal/config"
	"github.com/neuraforge/collab-gateway/internal/repository/memory"
	"github.com/neuraforge/collab-gateway/internal/service"
	"github.com/neuraforge/collab-gateway/internal/websocket"
	flag "github.com/spf13/pflag"
)

func main() {
	configPath := flag.StringP("config", "c", "", "path to a YAML config file")
	host := flag.String("host", "", "listen host (overrides HOST)")
	port := flag.StringP("port", "p", "", "listen port (overrides PORT)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if flag.CommandLine.Changed("host") {
		cfg.Host = *host
	}
	if flag.CommandLine.Changed("port") {
		cfg.Port = *port
	}

	// Users and sessions live in memory and are lost on restart
	repos := memory.NewRepositories()
	services := service.NewServices(repos, cfg)

	if cfg.SeedDemoUser {
		user, err := services.Credentials.SeedDemoUser(context.Background())
		if err != nil {
			log.Fatalf("failed to seed demo user: %v", err)
		}
		log.Printf("Seeded demo user %s", user.Email)
	}

	ctx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go services.Sessions.RunSweeper(ctx, cfg.SessionSweepInterval)

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	router := api.NewRouter(services, hub, cfg)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s (%s)", cfg.Addr(), cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	// Hijacked websocket connections are not covered by Shutdown
	hub.Stop()
	stopSweeper()

	log.Println("Server stopped")
}
