package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	StoreDriver string
	DatabaseURL string
	SeedFile    string

	RedisAddr   string
	JobCacheTTL time.Duration

	KafkaBroker string
	KafkaTopic  string

	UploadBaseURL    string
	UploadAPIKey     string
	UploadRatePerMin int

	AdminAPIKey  string
	GeminiAPIKey string

	GoogleCredentialsFile string
	GoogleRedirectURL     string

	PageSize         int
	SearchFetchLimit int
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Load reads .env (if present) and then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		HTTPAddr:              GetEnv("HTTP_ADDR", ":8080"),
		StoreDriver:           GetEnv("STORE_DRIVER", DriverPostgres),
		DatabaseURL:           GetEnv("DATABASE_URL", "host=localhost user=postgres password=password dbname=career_atlas port=5432 sslmode=disable"),
		SeedFile:              GetEnv("SEED_FILE", ""),
		RedisAddr:             GetEnv("REDIS_ADDR", ""),
		JobCacheTTL:           ParseDuration(os.Getenv("JOB_CACHE_TTL"), 10*time.Minute),
		KafkaBroker:           GetEnv("KAFKA_BROKER", ""),
		KafkaTopic:            GetEnv("KAFKA_TOPIC", "career-atlas.activity"),
		UploadBaseURL:         GetEnv("UPLOAD_BASE_URL", ""),
		UploadAPIKey:          GetEnv("UPLOAD_API_KEY", ""),
		UploadRatePerMin:      ParseInt(os.Getenv("UPLOAD_RATE_PER_MIN"), 12),
		AdminAPIKey:           GetEnv("ADMIN_API_KEY", ""),
		GeminiAPIKey:          GetEnv("GEMINI_API_KEY", ""),
		GoogleCredentialsFile: GetEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleRedirectURL:     GetEnv("GOOGLE_REDIRECT_URL", ""),
		PageSize:              ParseInt(os.Getenv("PAGE_SIZE"), 10),
		SearchFetchLimit:      ParseInt(os.Getenv("SEARCH_FETCH_LIMIT"), 500),
	}
}

// GetEnv returns the environment variable value or a fallback if unset.
func GetEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

// ParseDuration parses a duration string with a fallback.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// ParseInt parses an int string with a fallback.
func ParseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
