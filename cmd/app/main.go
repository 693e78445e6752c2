package main

import (
	"context"
	"flag"
	"log"
	"os"

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

	log.Printf("env=%s state=%s lock=%t", cfg.Environment, cfg.State.Backend, cfg.Webhook.EngineLock)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(context.Background()); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
