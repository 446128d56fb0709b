package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Assembly AssemblyAIConfig
	Analysis AnalysisConfig
	Remote   RemoteConfig
	Capture  CaptureConfig
	Recovery RecoveryConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	RestaurantID    string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds the embedded recording store configuration
type DatabaseConfig struct {
	Path string
}

// JWTConfig holds operator token configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	PublicURL       string
}

// AssemblyAIConfig holds transcription service configuration
type AssemblyAIConfig struct {
	APIKey string
}

// AnalysisConfig holds LLM analysis service configuration
type AnalysisConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// RemoteConfig holds the remote record backend configuration
type RemoteConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// CaptureConfig holds capture engine configuration
type CaptureConfig struct {
	DeviceName     string
	SampleRate     int
	AmplitudeEvery time.Duration
}

// RecoveryConfig holds recovery coordinator configuration
type RecoveryConfig struct {
	InitialDelay   time.Duration
	PendingMaxAge  time.Duration
	PendingLimit   int
	MaxConcurrency int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			RestaurantID:    getEnv("RESTAURANT_ID", ""),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "tablevox.db"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-change-in-production"),
			Expiry: getEnvAsDuration("JWT_EXPIRY", "168h"),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "tablevox-recordings"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			PublicURL:       getEnv("STORAGE_PUBLIC_URL", ""),
		},
		Assembly: AssemblyAIConfig{
			APIKey: getEnv("ASSEMBLYAI_API_KEY", ""),
		},
		Analysis: AnalysisConfig{
			APIKey:  getEnv("ANALYSIS_API_KEY", ""),
			BaseURL: getEnv("ANALYSIS_API_URL", "https://api.groq.com"),
			Model:   getEnv("ANALYSIS_MODEL", "llama-3.1-70b-versatile"),
			Timeout: getEnvAsDuration("ANALYSIS_TIMEOUT", "60s"),
		},
		Remote: RemoteConfig{
			BaseURL: getEnv("REMOTE_API_URL", ""),
			APIKey:  getEnv("REMOTE_API_KEY", ""),
			Timeout: getEnvAsDuration("REMOTE_TIMEOUT", "15s"),
		},
		Capture: CaptureConfig{
			DeviceName:     getEnv("CAPTURE_DEVICE", "default"),
			SampleRate:     getEnvAsInt("CAPTURE_SAMPLE_RATE", 16000),
			AmplitudeEvery: getEnvAsDuration("CAPTURE_AMPLITUDE_INTERVAL", "100ms"),
		},
		Recovery: RecoveryConfig{
			InitialDelay:   getEnvAsDuration("RECOVERY_INITIAL_DELAY", "1s"),
			PendingMaxAge:  getEnvAsDuration("RECOVERY_PENDING_MAX_AGE", "168h"),
			PendingLimit:   getEnvAsInt("RECOVERY_PENDING_LIMIT", 50),
			MaxConcurrency: getEnvAsInt("RECOVERY_MAX_CONCURRENCY", 2),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.RestaurantID == "" {
		return fmt.Errorf("RESTAURANT_ID is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.Recovery.PendingLimit <= 0 {
		return fmt.Errorf("RECOVERY_PENDING_LIMIT must be positive")
	}
	if c.Recovery.MaxConcurrency <= 0 {
		return fmt.Errorf("RECOVERY_MAX_CONCURRENCY must be positive")
	}
	if c.Capture.SampleRate <= 0 {
		return fmt.Errorf("CAPTURE_SAMPLE_RATE must be positive")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
