/**
 * @description
 * Configuration loader for the DataDash backend.
 * Reads environment variables (optionally from .env), overlays an optional YAML
 * file for the tracked-symbol lists, sets defaults and validates.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - gopkg.in/yaml.v3: For the optional CONFIG_FILE overlay
 *
 * @notes
 * - Missing provider keys only degrade the matching fetcher; they never fail Load.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	Providers ProvidersConfig
	Collector CollectorConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development", "staging", "production" or "test"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// ProvidersConfig holds upstream API endpoints, keys and shared HTTP settings
type ProvidersConfig struct {
	CoinGeckoURL       string
	AlphaVantageURL    string
	AlphaVantageAPIKey string
	OpenWeatherURL     string
	OpenWeatherAPIKey  string
	ExchangeRateURL    string
	RequestTimeout     time.Duration
	UserAgent          string
}

// CollectorConfig lists what each fetcher tracks and how often the worker runs.
type CollectorConfig struct {
	CryptoIDs     []string `yaml:"crypto_ids"`
	StockSymbols  []string `yaml:"stock_symbols"`
	WeatherCities []string `yaml:"weather_cities"`
	BaseCurrency  string   `yaml:"base_currency"`
	Cron          string   `yaml:"cron"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string
	File  string
}

type fileConfig struct {
	Collector CollectorConfig `yaml:"collector"`
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (containers inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Providers: ProvidersConfig{
			CoinGeckoURL:       getEnv("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
			AlphaVantageURL:    getEnv("ALPHA_VANTAGE_URL", "https://www.alphavantage.co/query"),
			AlphaVantageAPIKey: sanitizeCredential(getEnv("ALPHA_VANTAGE_API_KEY", "")),
			OpenWeatherURL:     getEnv("OPENWEATHER_URL", "https://api.openweathermap.org/data/2.5"),
			OpenWeatherAPIKey:  sanitizeCredential(getEnv("OPENWEATHER_API_KEY", "")),
			ExchangeRateURL:    getEnv("EXCHANGE_RATE_URL", "https://api.exchangerate-api.com/v4/latest"),
			RequestTimeout:     time.Duration(getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 30)) * time.Second,
			UserAgent:          getEnv("PROVIDER_USER_AGENT", "DataDash/1.0"),
		},
		Collector: CollectorConfig{
			CryptoIDs:     []string{"bitcoin", "ethereum", "cardano", "polkadot"},
			StockSymbols:  []string{"AAPL", "GOOGL", "MSFT", "TSLA"},
			WeatherCities: []string{"London", "New York", "Tokyo", "Sydney"},
			BaseCurrency:  "USD",
			Cron:          "0 */5 * * * *",
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyCollectorEnv(&cfg.Collector)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile overlays the YAML collector section; empty fields keep their defaults.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	c := fc.Collector
	if len(c.CryptoIDs) > 0 {
		cfg.Collector.CryptoIDs = c.CryptoIDs
	}
	if len(c.StockSymbols) > 0 {
		cfg.Collector.StockSymbols = c.StockSymbols
	}
	if len(c.WeatherCities) > 0 {
		cfg.Collector.WeatherCities = c.WeatherCities
	}
	if c.BaseCurrency != "" {
		cfg.Collector.BaseCurrency = c.BaseCurrency
	}
	if c.Cron != "" {
		cfg.Collector.Cron = c.Cron
	}
	return nil
}

func applyCollectorEnv(c *CollectorConfig) {
	if v := getEnvAsList("CRYPTO_IDS"); len(v) > 0 {
		c.CryptoIDs = v
	}
	if v := getEnvAsList("STOCK_SYMBOLS"); len(v) > 0 {
		c.StockSymbols = v
	}
	if v := getEnvAsList("WEATHER_CITIES"); len(v) > 0 {
		c.WeatherCities = v
	}
	if v := getEnv("BASE_CURRENCY", ""); v != "" {
		c.BaseCurrency = strings.ToUpper(v)
	}
	if v := getEnv("COLLECT_CRON", ""); v != "" {
		c.Cron = v
	}
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Providers.RequestTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECONDS must be positive")
	}
	if cfg.Providers.AlphaVantageAPIKey == "" {
		fmt.Println("Warning: ALPHA_VANTAGE_API_KEY is missing. Stock collection will be skipped.")
	}
	if cfg.Providers.OpenWeatherAPIKey == "" {
		fmt.Println("Warning: OPENWEATHER_API_KEY is missing. Weather collection will be skipped.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated env var, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
