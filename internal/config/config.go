// Package config loads the application configuration from the environment.
// Everything that used to be ambient (API keys, routing regions, model
// names) lives in one explicit struct that components receive at
// construction time.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults for optional settings.
const (
	DefaultRegion   = "europe"
	DefaultPlatform = "euw1"
	DefaultModel    = "claude-sonnet-4-5"
	DefaultPort     = "8000"
	DefaultDataDir  = "./matches"
)

// Config holds every external setting the backend needs.
type Config struct {
	RiotAPIKey       string
	AnthropicAPIKey  string
	ElevenLabsAPIKey string

	// Riot routing: Region is the regional host (europe, americas, asia),
	// Platform the platform host (euw1, na1, ...).
	Region   string
	Platform string

	// Model is the Anthropic model used for all analysis stages.
	Model string

	Port    string
	DataDir string

	// DatabaseURL enables the Postgres analysis archive when set.
	DatabaseURL string

	// AllowedOrigins for the CORS layer, comma-separated in the env.
	AllowedOrigins []string
}

// Load reads the configuration, probing the usual .env locations first
// (working dir and parents), then falling back to the process environment.
func Load() *Config {
	envPaths := []string{".env", "../.env", "../../.env"}
	loaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			fmt.Printf("Loaded .env from: %s\n", path)
			loaded = true
			break
		}
	}
	if !loaded {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		RiotAPIKey:       getenvAny("RIOT_API_KEY", "RIOT-DEV-KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		Region:           getenvDefault("RIOT_REGION", DefaultRegion),
		Platform:         getenvDefault("RIOT_PLATFORM", DefaultPlatform),
		Model:            getenvDefault("ANTHROPIC_MODEL", DefaultModel),
		Port:             getenvDefault("PORT", DefaultPort),
		DataDir:          getenvDefault("DATA_DIR", DefaultDataDir),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
	}

	origins := getenvDefault("ALLOWED_ORIGINS",
		"http://localhost:5173,http://localhost:3000,http://localhost:8080,http://127.0.0.1:5173,http://127.0.0.1:8080")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg
}

// getenvAny returns the first non-empty value among the given variable
// names, with surrounding quotes stripped (some .env files quote values).
func getenvAny(names ...string) string {
	for _, name := range names {
		if v := strings.Trim(os.Getenv(name), "\""); v != "" {
			return v
		}
	}
	return ""
}

func getenvDefault(name, fallback string) string {
	if v := strings.Trim(os.Getenv(name), "\""); v != "" {
		return v
	}
	return fallback
}
