package config

import (
	"os"
	"strconv"
	"time"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	HTTPAddr  string
	JWTSecret string

	DB       DBConfig
	Gemini   GeminiConfig
	Geocode  GeocodeConfig
	POI      POIConfig
	Wiki     WikiConfig
	Telegram TelegramConfig

	// FreeQuota is the number of prompts an unpaid account may submit.
	FreeQuota int

	AdminUsername string
	AdminPassword string
}

type DBConfig struct {
	Driver string // "sqlite" or "postgres"
	DSN    string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type GeocodeConfig struct {
	APIKey      string
	BaseURL     string
	MaxAttempts int
	Backoff     time.Duration
	RatePerSec  float64
}

type POIConfig struct {
	OverpassURL string
	RadiusM     int
}

type WikiConfig struct {
	Lang            string
	GeographyMarker string
	HistoryMarker   string
}

type TelegramConfig struct {
	BotToken string
}

func Load() Config {
	return Config{
		HTTPAddr:  getEnv("HTTP_ADDR", "0.0.0.0:8080"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		DB: DBConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "account.db"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Geocode: GeocodeConfig{
			APIKey:      os.Getenv("OPENCAGE_API_KEY"),
			BaseURL:     getEnv("OPENCAGE_URL", "https://api.opencagedata.com/geocode/v1/json"),
			MaxAttempts: getEnvInt("GEOCODE_MAX_ATTEMPTS", 3),
			Backoff:     getEnvDuration("GEOCODE_BACKOFF", 2*time.Second),
			RatePerSec:  getEnvFloat("GEOCODE_RATE", 1),
		},
		POI: POIConfig{
			OverpassURL: getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
			RadiusM:     getEnvInt("POI_RADIUS", 1000),
		},
		Wiki: WikiConfig{
			Lang:            getEnv("WIKI_LANG", "en"),
			GeographyMarker: getEnv("WIKI_GEOGRAPHY_MARKER", "Geography"),
			HistoryMarker:   getEnv("WIKI_HISTORY_MARKER", "History"),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
		FreeQuota:     getEnvInt("FREE_QUOTA", 2),
		AdminUsername: getEnv("ADMIN_USERNAME", "root"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "root"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
