package main

import (
	"context"
	"log"

	"github.com/burakmert236/scrimsignups/common/config"
	"github.com/burakmert236/scrimsignups/common/utils"
	"github.com/burakmert236/scrimsignups/services/signup-service/app"
)

func main() {
	cfg, err := config.Load("../config")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	utils.WaitForGracefulShutdown(application.Logger())

	if err := application.Stop(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
