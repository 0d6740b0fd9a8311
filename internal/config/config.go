package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	DatabaseURL     string
	JWTSecret       string
	HTTPPort        string
	TokenExpiration time.Duration

	// LLM provider settings (OpenAI-compatible chat completions).
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	// ContextWindow bounds how many persisted messages go into one request.
	ContextWindow int
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
		// Don't fail if .env is not present, might be in production
	}

	port := getEnv("HTTP_PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "default-super-secret-key") // CHANGE THIS IN PRODUCTION!
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set.")
	}

	tokenExpStr := getEnv("JWT_EXPIRATION_HOURS", "24")
	tokenExpHours, err := strconv.Atoi(tokenExpStr)
	if err != nil {
		log.Printf("Warning: Invalid JWT_EXPIRATION_HOURS '%s', using default 24h. Error: %v", tokenExpStr, err)
		tokenExpHours = 24
	}

	llmBaseURL := getEnv("LLM_BASE_URL", "https://api.openai.com/v1")
	llmAPIKey := getEnv("LLM_API_KEY", "")
	if llmAPIKey == "" {
		log.Fatal("FATAL: LLM_API_KEY environment variable is not set.")
	}
	llmModel := getEnv("LLM_MODEL", "gpt-4o-mini")

	llmTimeoutStr := getEnv("LLM_TIMEOUT_SECONDS", "60")
	llmTimeoutSecs, err := strconv.Atoi(llmTimeoutStr)
	if err != nil || llmTimeoutSecs <= 0 {
		log.Printf("Warning: Invalid LLM_TIMEOUT_SECONDS '%s', using default 60s.", llmTimeoutStr)
		llmTimeoutSecs = 60
	}

	windowStr := getEnv("CONTEXT_WINDOW_SIZE", "10")
	window, err := strconv.Atoi(windowStr)
	if err != nil || window <= 0 {
		log.Printf("Warning: Invalid CONTEXT_WINDOW_SIZE '%s', using default 10.", windowStr)
		window = 10
	}

	cfg := &Config{
		HTTPPort:        port,
		JWTSecret:       jwtSecret,
		DatabaseURL:     dbURL,
		TokenExpiration: time.Hour * time.Duration(tokenExpHours),
		LLMBaseURL:      llmBaseURL,
		LLMAPIKey:       llmAPIKey,
		LLMModel:        llmModel,
		LLMTimeout:      time.Second * time.Duration(llmTimeoutSecs),
		ContextWindow:   window,
	}

	log.Printf("Loaded config: Port=%s, DB_URL=***, TokenExp=%s, LLM=%s@%s, Window=%d",
		cfg.HTTPPort, cfg.TokenExpiration, cfg.LLMModel, cfg.LLMBaseURL, cfg.ContextWindow)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}
