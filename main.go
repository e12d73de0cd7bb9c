package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"folio/cmd"
	"folio/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Commands replace this once --config and --log-level are parsed.
	if err := logger.Setup(logger.DefaultConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	cmd.Execute()
}
