package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	LLM      LLMConfig
	CRM      CRMConfig
	Context  ContextConfig
	Title    TitleConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	GroundingLogPath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	OtelEnabled        bool
}

func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

type DatabaseConfig struct {
	Connection string
}

type LLMConfig struct {
	Provider   string // "gemini", "ollama" or "huggingface"
	Model      string
	TitleModel string
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

type CRMConfig struct {
	// Providers are tried in this order, first non-empty record wins
	Providers            []string
	HubspotBaseURL       string
	SalesforceAPIVersion string
	Timeout              time.Duration
}

type ContextConfig struct {
	ConfirmedLimit int
	HeuristicLimit int
	RecentLimit    int
	HistoryLimit   int
}

type TitleConfig struct {
	MaxQuestionLength int
	Timeout           time.Duration
	Topic             string
	Workers           int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			GroundingLogPath:   getEnv("GROUNDING_LOG_PATH", "logs/grounding.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		LLM: LLMConfig{
			Provider:   getEnv("LLM_PROVIDER", "gemini"),
			Model:      getEnv("LLM_MODEL", "gemini-2.5-flash"),
			TitleModel: getEnv("LLM_TITLE_MODEL", ""),
			BaseURL:    getEnv("LLM_BASE_URL", ""),
			APIKey:     getEnv("LLM_API_KEY", getEnv("GOOGLE_GEMINI_API_KEY", "")),
			Timeout:    getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			MaxRetries: getEnvAsInt("LLM_MAX_RETRIES", 1),
		},
		CRM: CRMConfig{
			Providers:            getEnvAsList("CRM_PROVIDERS", []string{"hubspot", "salesforce"}),
			HubspotBaseURL:       getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),
			SalesforceAPIVersion: getEnv("SALESFORCE_API_VERSION", "v59.0"),
			Timeout:              getEnvAsDuration("CRM_TIMEOUT", 10*time.Second),
		},
		Context: ContextConfig{
			ConfirmedLimit: getEnvAsInt("CONTEXT_CONFIRMED_LIMIT", 10),
			HeuristicLimit: getEnvAsInt("CONTEXT_HEURISTIC_LIMIT", 5),
			RecentLimit:    getEnvAsInt("CONTEXT_RECENT_LIMIT", 10),
			HistoryLimit:   getEnvAsInt("CONTEXT_HISTORY_LIMIT", 20),
		},
		Title: TitleConfig{
			MaxQuestionLength: getEnvAsInt("TITLE_MAX_QUESTION_LENGTH", 50),
			Timeout:           getEnvAsDuration("TITLE_TIMEOUT", 30*time.Second),
			Topic:             getEnv("TITLE_TOPIC_NAME", "GENERATE_THREAD_TITLE"),
			Workers:           getEnvAsInt("TITLE_WORKERS", 4),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
