package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/termweave/backend/internal/infrastructure/config"
	"github.com/termweave/backend/internal/infrastructure/server"
)

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	inventoryPath := flag.String("inventory", "", "Host inventory YAML (overrides INVENTORY_PATH)")
	storagePath := flag.String("db", "", "Sqlite database path (overrides STORAGE_PATH)")
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *inventoryPath != "" {
		cfg.Inventory.Path = *inventoryPath
	}
	if *storagePath != "" {
		cfg.Storage.Path = *storagePath
	}
	if *dev {
		cfg.Logging.Development = true
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
