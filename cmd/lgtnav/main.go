package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// LGTNAV_* overrides may live in a local .env file.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
