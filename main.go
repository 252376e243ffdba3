package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"visca-bridge/internal/bridge"
	"visca-bridge/internal/config"
	"visca-bridge/internal/database"
	"visca-bridge/internal/database/models"
	"visca-bridge/internal/database/repositories"
	"visca-bridge/internal/mqtt"
	"visca-bridge/internal/pubsub"
	"visca-bridge/internal/server"
	"visca-bridge/internal/transport"
)

//go:embed web/*
var staticFiles embed.FS

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	// Command line flags override the environment
	listenAddr := flag.String("listen", ":"+cfg.Port, "HTTP listen address")
	flag.StringVar(&cfg.Transport, "transport", cfg.Transport, "VISCA link (serial, tarm, tcp or udp)")
	flag.StringVar(&cfg.Device, "device", cfg.Device, "Serial device for serial/tarm links")
	flag.StringVar(&cfg.Address, "visca", cfg.Address, "VISCA address for tcp/udp links (host:port)")
	flag.Parse()

	// Persisted settings
	db, err := database.Connect(database.Config{
		URL:   cfg.DatabaseURL,
		Debug: cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	settings := repositories.NewSettingRepository(db)
	loadSettings(settings, cfg)

	printBanner(cfg, *listenAddr)

	// Camera bus
	link, err := transport.Open(cfg.LinkConfig())
	if err != nil {
		log.Fatalf("Failed to open VISCA link: %v", err)
	}
	defer link.Close()

	bus := pubsub.New()
	br := bridge.New(bridge.Config{
		Cameras:      cfg.Cameras,
		Limits:       cfg.Limits,
		PollEnabled:  cfg.PollEnabled,
		PollInterval: cfg.PollInterval,
		FrameTimeout: cfg.FrameTimeout,
	}, link, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridgeDone := make(chan error, 1)
	go func() { bridgeDone <- br.Run(ctx) }()

	// Message bus
	deps := server.Deps{Controller: br, Bus: bus, Settings: settings}
	if cfg.MQTTEnabled {
		client := mqtt.New(mqtt.Config{
			Server:       cfg.MQTTServer,
			Port:         cfg.MQTTPort,
			ClientPrefix: cfg.MQTTClientPrefix,
		}, br, bus)
		deps.Broker = client
		go func() {
			if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("MQTT: %v", err)
			}
		}()
	}

	// HTTP and WebSocket surface
	srv, err := server.New(server.Config{
		ListenAddr:  *listenAddr,
		Development: cfg.IsDevelopment(),
		SettingDefaults: map[string]string{
			models.SettingMQTTServer: cfg.MQTTServer,
			models.SettingMQTTPort:   cfg.MQTTPort,
		},
	}, deps, staticFiles)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Println("Shutting down...")
	case err := <-bridgeDone:
		log.Printf("VISCA bridge stopped: %v", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// loadSettings applies the persisted broker address over the environment.
func loadSettings(settings *repositories.SettingRepository, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	host, err := settings.Value(ctx, models.SettingMQTTServer, cfg.MQTTServer)
	if err != nil {
		log.Printf("Failed to read %s: %v", models.SettingMQTTServer, err)
	}
	port, err := settings.Value(ctx, models.SettingMQTTPort, cfg.MQTTPort)
	if err != nil {
		log.Printf("Failed to read %s: %v", models.SettingMQTTPort, err)
	}
	cfg.MQTTServer, cfg.MQTTPort = host, port
}

func printBanner(cfg *config.Config, listenAddr string) {
	log.Printf("VISCA Bridge")
	log.Printf("  Listen: %s", listenAddr)
	switch cfg.Transport {
	case transport.KindTCP, transport.KindUDP:
		log.Printf("  VISCA: %s (%s)", cfg.Address, cfg.Transport)
	default:
		log.Printf("  VISCA: %s @ %d baud (%s)", cfg.Device, cfg.BaudRate, cfg.Transport)
	}
	log.Printf("  Cameras: %d", cfg.Cameras)
	if cfg.PollEnabled {
		log.Printf("  Poll: every %v", cfg.PollInterval)
	}
	if cfg.MQTTEnabled {
		log.Printf("  MQTT: %s:%s", cfg.MQTTServer, cfg.MQTTPort)
	}
}
