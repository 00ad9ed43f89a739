package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	ServerPort  string
	GRPCPort    string
	Environment string
	LogLevel    string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis configuration
	RedisAddress string

	// JWT configuration
	JWTSecret string

	// Remote mirror that receives every document list after a local write
	SyncServerAddress string

	NotifyWebhookURL string
	FileBaseURL      string
	FrontendAddress  string

	// Editing engine
	UndoCapacity   int
	MaxRows        int
	VATRatePercent int

	// Approval policy
	CEORecipient      string
	DomesticLocations []string

	WorkerPoolSize int
}

// Global application configuration
var AppConfig Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = generateRandomSecret(32)
		log.Println("Generated random JWT secret")
	}

	AppConfig = Config{
		ServerPort:        getEnv("PORT", "8080"),
		GRPCPort:          getEnv("GRPC_PORT", "9090"),
		Environment:       getEnv("ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "gridflow"),
		RedisAddress:      getEnv("REDIS_ADDRESS", "localhost:6379"),
		JWTSecret:         jwtSecret,
		SyncServerAddress: getEnv("SYNC_ADDRESS", ""),
		NotifyWebhookURL:  getEnv("NOTIFY_WEBHOOK_URL", ""),
		FileBaseURL:       getEnv("FILE_BASE_URL", "http://localhost:8080/files"),
		FrontendAddress:   getEnv("FRONTEND_ADDRESS", "https://production-frontend.com"),
		UndoCapacity:      getEnvInt("UNDO_CAPACITY", 50),
		MaxRows:           getEnvInt("MAX_ROWS", 200),
		VATRatePercent:    getEnvInt("VAT_RATE_PERCENT", 10),
		CEORecipient:      getEnv("CEO_RECIPIENT", ""),
		DomesticLocations: getEnvList("DOMESTIC_LOCATIONS"),
		WorkerPoolSize:    getEnvInt("WORKER_POOL_SIZE", 4),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func generateRandomSecret(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("failed to generate secret: %v", err)
	}
	return hex.EncodeToString(b)
}
