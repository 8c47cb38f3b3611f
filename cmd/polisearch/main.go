// Package main provides the entry point for the polisearch CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/polisearch/polisearch/cmd/polisearch/cmd"
)

func main() {
	// Load .env for API keys when present; absence is not an error.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
