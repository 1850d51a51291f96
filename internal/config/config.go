// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// DataDir is the safe root directory for saved return files.
	DataDir string
	// KeyPath is the location of the encryption key file. It must live
	// outside DataDir.
	KeyPath string
	// AuditDBPath is the location of the audit log database.
	AuditDBPath string

	// ServerHost is the host address the API server will bind to.
	ServerHost string
	// ServerPort is the port number the API server will listen on.
	ServerPort int

	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string
}

// Load loads configuration from environment variables and an optional .env file.
func Load() *Config {
	loadDotEnv()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".freedomtax")

	return &Config{
		DataDir:     env.GetString("FT_DATA_DIR", filepath.Join(base, "returns")),
		KeyPath:     env.GetString("FT_KEY_PATH", filepath.Join(base, "keys", "return.key")),
		AuditDBPath: env.GetString("FT_AUDIT_DB_PATH", filepath.Join(base, "audit.db")),

		ServerHost: env.GetString("FT_SERVER_HOST", "127.0.0.1"),
		ServerPort: env.GetInt("FT_SERVER_PORT", 8080),

		LogLevel: env.GetString("FT_LOG_LEVEL", "info"),
	}
}

// loadDotEnv searches for a .env file from the current directory up to the
// filesystem root and loads the first one found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			_ = godotenv.Load(candidate)
			return
		}
		if dir == filepath.Dir(dir) {
			return
		}
	}
}
