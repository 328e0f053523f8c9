package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-jsonform/internal/config"
	"github.com/goliatone/go-jsonform/internal/logging"
	"github.com/goliatone/go-jsonform/internal/messaging"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file (optional)")
	manifestPath := flag.String("manifest", "channels.yaml", "YAML file listing channels and subscriptions")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Logger.Config())
	defer logger.Sync() //nolint:errcheck

	raw, err := os.ReadFile(*manifestPath)
	if err != nil {
		log.Fatalf("Failed to read manifest: %v", err)
	}
	manifest, err := messaging.ParseManifest(raw)
	if err != nil {
		log.Fatalf("Failed to parse manifest: %v", err)
	}

	provisioner, err := messaging.NewProvisioner(cfg.Broker.Config(), messaging.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to configure broker: %v", err)
	}
	names, err := provisioner.Provision(context.Background(), manifest.Records()...)
	if err != nil {
		logger.Error("provisioning stopped", zap.Strings("declared", names), zap.Error(err))
		os.Exit(1)
	}
	fmt.Printf("Declared %d exchanges\n", len(names))
}
