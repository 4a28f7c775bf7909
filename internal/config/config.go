package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the process needs.
type Config struct {
	Server   ServerConfig
	Bot      BotConfig
	Realtime RealtimeConfig
}

// ServerConfig describes the webhook HTTP server.
type ServerConfig struct {
	Addr string
}

// BotConfig describes the chat transport side.
type BotConfig struct {
	Token        string
	APIBaseURL   string
	DisplayField string // "username" or "first_name"
	MapURL       string
}

// RealtimeConfig describes the realtime backend the forwarder emits to.
type RealtimeConfig struct {
	ServerURL      string
	ForwardTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	bot, err := loadBotConfig()
	if err != nil {
		return nil, err
	}

	realtime, err := loadRealtimeConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Bot: bot, Realtime: realtime}, nil
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func loadBotConfig() (BotConfig, error) {
	token := strings.TrimSpace(os.Getenv("TOKEN"))
	if token == "" {
		return BotConfig{}, fmt.Errorf("TOKEN is required")
	}

	displayField := strings.ToLower(getEnvOrDefault("DISPLAY_NAME_FIELD", "username"))
	switch displayField {
	case "username", "first_name":
	default:
		return BotConfig{}, fmt.Errorf("invalid DISPLAY_NAME_FIELD value %q: want username or first_name", displayField)
	}

	return BotConfig{
		Token:        token,
		APIBaseURL:   getEnvOrDefault("TELEGRAM_API_URL", "https://api.telegram.org"),
		DisplayField: displayField,
		MapURL:       strings.TrimSpace(os.Getenv("MAP_URL")),
	}, nil
}

func loadRealtimeConfig() (RealtimeConfig, error) {
	serverURL := strings.TrimSpace(os.Getenv("SERVER_URL"))
	if serverURL == "" {
		return RealtimeConfig{}, fmt.Errorf("SERVER_URL is required")
	}

	timeout := 10 * time.Second
	if override, err := parseOptionalIntEnv("FORWARD_TIMEOUT"); err != nil {
		return RealtimeConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return RealtimeConfig{}, fmt.Errorf("FORWARD_TIMEOUT must be at least 1 second")
		}
		timeout = time.Duration(*override) * time.Second
	}

	return RealtimeConfig{
		ServerURL:      serverURL,
		ForwardTimeout: timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
