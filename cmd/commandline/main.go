package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ethanbaker/sourcing/pkg/sdk"
	"github.com/ethanbaker/sourcing/pkg/utils"
)

func main() {
	// Find env file
	envFile := ".env"
	if os.Getenv("ENV_FILE") != "" {
		envFile = os.Getenv("ENV_FILE")
	}

	// Load global config
	cfg := utils.NewConfigFromEnv(envFile)

	apiKey := cfg.Get("API_KEY")
	if apiKey == "" {
		log.Fatalf("[COMMANDLINE]: API_KEY not set in environment")
	}

	client := sdk.NewClient(cfg.GetWithDefault("SOURCING_API_URL", "http://localhost:8080"), apiKey).
		WithUserID(uint(cfg.GetIntWithDefault("SOURCING_USER_ID", 1)))

	// Start interactive session
	ctx := context.Background()
	if err := startInteractiveSession(ctx, &cli{client: client, out: os.Stdout}); err != nil {
		log.Fatalf("[COMMANDLINE]: Failed to start interactive session: %v", err)
	}
}

// startInteractiveSession reads commands from stdin until 'exit'
func startInteractiveSession(ctx context.Context, c *cli) error {
	fmt.Println("Sourcing console started. Type 'help' for commands or 'exit' to quit.")

	// Create scanner for reading user input
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())

		if input == "exit" {
			break
		}

		if input == "" {
			continue
		}

		if err := c.run(ctx, strings.Fields(input)); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	return nil
}
