package main

import (
	"log"
	"os"
	"time"

	"github.com/ethanbaker/sourcing/internal/api"
	"github.com/ethanbaker/sourcing/pkg/utils"
	"github.com/getsentry/sentry-go"
)

// Start the API server
func main() {
	// Find env file
	envFile := ".env"
	if os.Getenv("ENV_FILE") != "" {
		envFile = os.Getenv("ENV_FILE")
	}

	// Load global config
	cfg := utils.NewConfigFromEnv(envFile)

	// Error reporting is optional
	if dsn := cfg.Get("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: cfg.GetWithDefault("SENTRY_ENVIRONMENT", "production"),
		}); err != nil {
			log.Printf("[API-MAIN]: Warning, failed to initialize sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Start
	api.Start(cfg)
}
