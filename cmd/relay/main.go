package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata"

	"EngineGate/internal/di"
	"EngineGate/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "config file path (defaults and env only when empty)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.ValidateRelay(); err != nil {
		log.Printf("relay config: %v", err)
		os.Exit(2)
	}

	relay, err := di.InitializeRelay(cfg)
	if err != nil {
		log.Fatalf("relay initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := relay.Run(ctx); err != nil {
		log.Printf("relay error: %v", err)
		os.Exit(1)
	}
}
