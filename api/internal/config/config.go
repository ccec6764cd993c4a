package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port string

	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	// Google Custom Search (web search capability)
	GoogleAPIKey         string
	GoogleSearchEngineID string

	// Telegram bot
	TelegramBotToken string
	WebhookURL       string

	// Yandex Cloud (OCR + speech for the bot front end)
	YCOAuthToken string
	YCFolderID   string

	// Postgres audit log; empty disables the audit store
	DatabaseURL string

	// Domains that get the trusted-source bias
	TrustedDomains []string

	// Upper bound on concurrent analyses
	MaxConcurrent int64

	// Default per-request deadline, seconds
	RequestTimeoutSec int
}

// Reputable outlets from the default instruction contract.
var defaultTrustedDomains = []string{
	"gmanetwork.com",
	"abs-cbn.com",
	"bbc.com",
	"cnn.com",
	"reuters.com",
	"theguardian.com",
	"nytimes.com",
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey: mustEnv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		GoogleAPIKey:         getEnv("GOOGLE_API_KEY", ""),
		GoogleSearchEngineID: getEnv("GOOGLE_SEARCH_ENGINE", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		YCOAuthToken: getEnv("YC_OAUTH_TOKEN", ""),
		YCFolderID:   getEnv("YC_FOLDER_ID", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		MaxConcurrent:     int64(getEnvInt("MAX_CONCURRENT", 4)),
		RequestTimeoutSec: getEnvInt("REQUEST_TIMEOUT_SEC", 180),
	}

	if raw := strings.TrimSpace(os.Getenv("TRUSTED_DOMAINS")); raw != "" {
		for _, d := range strings.Split(raw, ",") {
			if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
				cfg.TrustedDomains = append(cfg.TrustedDomains, d)
			}
		}
	} else {
		cfg.TrustedDomains = defaultTrustedDomains
	}

	return cfg
}
