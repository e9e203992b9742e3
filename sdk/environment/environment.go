// Package environment provides utilities for reading configuration from
// environment variables, namespaced by an application prefix.
package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from the given .env files, or from ./.env when no
// path is given. A missing file is not an error: deployed binaries get their
// configuration from the real environment.
//
// Example:
//
//	environment.LoadEnv()                       // ./.env if present
//	environment.LoadEnv("/etc/taskdeck/.env")   // explicit file
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// GetEnvOrDefault returns the value of key, or fallback when it is unset.
func GetEnvOrDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvKeyPrefix joins prefix and key with an underscore.
//
//	GetEnvKeyPrefix("TASKAPI", "PORT") // "TASKAPI_PORT"
//	GetEnvKeyPrefix("", "PORT")        // "PORT"
func GetEnvKeyPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return fmt.Sprintf("%s_%s", prefix, key)
}

// GetPrefixEnvOrDefault looks up prefix_key, returning fallback when unset.
func GetPrefixEnvOrDefault(prefix, key, fallback string) string {
	return GetEnvOrDefault(GetEnvKeyPrefix(prefix, key), fallback)
}
