// Package config loads application configuration from environment variables.
// All variables use the KURIKULUM_ prefix.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Cache          CacheConfig
	AI             AIConfig
	Auth           AuthConfig
	Log            LogConfig
	MasterDataPath string
	SchoolName     string
	AcademicYear   string // e.g. "2024/2025"
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings.
type CacheConfig struct {
	URL string
}

// AIConfig holds settings for the drafting provider (OpenAI-compatible).
type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	BcryptCost    int
	SessionTTL    int // hours
	AdminPassword string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

var academicYearRe = regexp.MustCompile(`^\d{4}/\d{4}$`)

// Load reads configuration from environment variables with KURIKULUM_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("KURIKULUM_SERVER_PORT", 8080),
			Host: envStr("KURIKULUM_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("KURIKULUM_DATABASE_URL", ""),
			MaxConns: envInt("KURIKULUM_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("KURIKULUM_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL: envStr("KURIKULUM_CACHE_URL", ""),
		},
		AI: AIConfig{
			APIKey:  envStr("KURIKULUM_AI_API_KEY", ""),
			BaseURL: envStr("KURIKULUM_AI_BASE_URL", ""),
			Model:   envStr("KURIKULUM_AI_MODEL", "gpt-4o-mini"),
		},
		Auth: AuthConfig{
			BcryptCost:    envInt("KURIKULUM_AUTH_BCRYPT_COST", 10),
			SessionTTL:    envInt("KURIKULUM_AUTH_SESSION_TTL", 12),
			AdminPassword: envStr("KURIKULUM_AUTH_ADMIN_PASSWORD", "admin"),
		},
		Log: LogConfig{
			Level:  envStr("KURIKULUM_LOG_LEVEL", "info"),
			Format: envStr("KURIKULUM_LOG_FORMAT", "json"),
		},
		MasterDataPath: envStr("KURIKULUM_MASTER_DATA_PATH", "./masterdata"),
		SchoolName:     envStr("KURIKULUM_SCHOOL_NAME", "Sekolah Dasar"),
		AcademicYear:   envStr("KURIKULUM_ACADEMIC_YEAR", "2024/2025"),
	}

	return cfg, nil
}

// Validate checks that required configuration is present and well-formed.
func (c *Config) Validate() error {
	if !academicYearRe.MatchString(c.AcademicYear) {
		return fmt.Errorf("KURIKULUM_ACADEMIC_YEAR must look like 2024/2025, got %q", c.AcademicYear)
	}

	parts := strings.SplitN(c.AcademicYear, "/", 2)
	first, _ := strconv.Atoi(parts[0])
	second, _ := strconv.Atoi(parts[1])
	if second != first+1 {
		return fmt.Errorf("KURIKULUM_ACADEMIC_YEAR years must be consecutive, got %q", c.AcademicYear)
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("KURIKULUM_AUTH_SESSION_TTL must be positive, got %d", c.Auth.SessionTTL)
	}

	return nil
}

// HasAIProvider returns true if the drafting provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.APIKey != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
