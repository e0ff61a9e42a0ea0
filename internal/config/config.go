// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
}

// DatabaseConfig holds document store connection settings
type DatabaseConfig struct {
	URI  string
	Name string
}

// AWSStorageConfig holds the credentials for the primary signed-URL bridge.
// All four fields are required before the storage provider may be invoked.
type AWSStorageConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// R2StorageConfig holds the credentials for the legacy signed-URL bridge
// backed by an S3-compatible Cloudflare R2 bucket.
type R2StorageConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	AccountID string
}

// AuthConfig holds session and provisioning settings.
type AuthConfig struct {
	JWTSecret  string
	AdminEmail string
	// TokenInfoURL is the OAuth provider's public token verification endpoint.
	TokenInfoURL string
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Database       *DatabaseConfig
	AWS            *AWSStorageConfig
	R2             *R2StorageConfig
	Auth           *AuthConfig
	AllowedOrigins []string
	// Environment gates error detail in responses: anything other than
	// "production" is treated as a development context.
	Environment string
	Debug       bool
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8080,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
	}
}

// Complete reports whether every AWS credential is present.
func (c *AWSStorageConfig) Complete() bool {
	return c.Region != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// Complete reports whether every R2 credential is present.
func (c *R2StorageConfig) Complete() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.Bucket != "" && c.AccountID != ""
}

// Production reports whether error detail must be withheld from responses.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	// Try to load .env from the usual locations; silent failure is fine.
	envLocations := []string{".env", "../../.env"}
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			break
		}
	}

	serverConfig := DefaultConfig()

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			serverConfig.Port = port
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		serverConfig.Host = host
	}

	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}

	dbConfig := &DatabaseConfig{
		URI:  os.Getenv("MONGODB_URI"),
		Name: getEnvOrDefault("MONGODB_DATABASE", "studio2"),
	}
	if dbConfig.URI == "" {
		return nil, fmt.Errorf("MONGODB_URI environment variable is required")
	}

	authConfig := &AuthConfig{
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AdminEmail:   getEnvOrDefault("ADMIN_EMAIL", "admin@example.com"),
		TokenInfoURL: os.Getenv("OAUTH_TOKENINFO_URL"),
	}
	if authConfig.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	config := &Config{
		Server:   serverConfig,
		Database: dbConfig,
		AWS: &AWSStorageConfig{
			Region:    os.Getenv("AWS_REGION"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Bucket:    os.Getenv("AWS_S3_BUCKET_NAME"),
		},
		R2: &R2StorageConfig{
			AccessKey: os.Getenv("CLOUDFLARE_R2_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("CLOUDFLARE_R2_SECRET_ACCESS_KEY"),
			Bucket:    os.Getenv("CLOUDFLARE_R2_BUCKET_NAME"),
			AccountID: os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		},
		Auth:           authConfig,
		AllowedOrigins: []string{"*"},
		Environment:    getEnvOrDefault("APP_ENV", "development"),
		Debug:          false,
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		config.Debug = true
	}

	return config, nil
}

// Helper function to get environment variable with default fallback
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
