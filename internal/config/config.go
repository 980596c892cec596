package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the connection settings for one client. Precedence:
// environment variables > YAML file > defaults.
type Config struct {
	// APIBaseURL is the REST base, e.g. "https://api.example.com".
	APIBaseURL string `yaml:"api_base_url"`
	// WSBaseURL is the real-time base, e.g. "wss://api.example.com".
	WSBaseURL string `yaml:"ws_base_url"`
	// Username identifies this client to the backend.
	Username string `yaml:"username"`
	// ReconnectAttempts bounds transport reconnection. Zero keeps the
	// transport default.
	ReconnectAttempts int `yaml:"reconnect_attempts"`
}

// Load reads configuration from an optional YAML file named by CONFIG_PATH,
// then applies environment overrides on top of the defaults.
func Load() Config {
	cfg := Config{
		APIBaseURL: "http://localhost:8080",
		WSBaseURL:  "ws://localhost:8080",
		Username:   "guest",
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				fmt.Fprintf(os.Stderr, "config: parse %s: %v (using defaults)\n", path, err)
			}
		}
	}

	cfg.APIBaseURL = envOrDefault("API_BASE_URL", cfg.APIBaseURL)
	cfg.WSBaseURL = envOrDefault("WS_BASE_URL", cfg.WSBaseURL)
	cfg.Username = envOrDefault("CHAT_USERNAME", cfg.Username)
	cfg.ReconnectAttempts = envOrDefaultInt("RECONNECT_ATTEMPTS", cfg.ReconnectAttempts)
	return cfg
}

// WebSocketURL builds the room-scoped event-stream endpoint.
func (c Config) WebSocketURL(roomID, userID string) string {
	return fmt.Sprintf("%s/ws/%s/%s", strings.TrimRight(c.WSBaseURL, "/"), roomID, userID)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
