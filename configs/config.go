// Package config reads Inkpress settings from the process environment, with
// an optional .env file for local development.
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Config returns the named environment variable. The .env file, if present,
// is loaded once on first use and never overrides variables already set.
func Config(key string) string {
	loadOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, reading from system environment")
		}
	})
	return os.Getenv(key)
}
