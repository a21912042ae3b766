package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/jhpark-dev/stockrag/cmd"
)

func main() {
	// API keys are commonly kept in a local .env file. Missing file is fine.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
