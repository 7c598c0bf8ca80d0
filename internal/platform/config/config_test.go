package config

import (
	"os"
	"testing"
)

// clearEnv unsets all KURIKULUM_ environment variables for a clean test.
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"KURIKULUM_SERVER_PORT",
		"KURIKULUM_SERVER_HOST",
		"KURIKULUM_DATABASE_URL",
		"KURIKULUM_DATABASE_MAX_CONNS",
		"KURIKULUM_DATABASE_MIN_CONNS",
		"KURIKULUM_CACHE_URL",
		"KURIKULUM_AI_API_KEY",
		"KURIKULUM_AI_BASE_URL",
		"KURIKULUM_AI_MODEL",
		"KURIKULUM_AUTH_BCRYPT_COST",
		"KURIKULUM_AUTH_SESSION_TTL",
		"KURIKULUM_LOG_LEVEL",
		"KURIKULUM_LOG_FORMAT",
		"KURIKULUM_MASTER_DATA_PATH",
		"KURIKULUM_ACADEMIC_YEAR",
	}
	for _, v := range envVars {
		_ = os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("Database.MaxConns = %d, want 25", cfg.Database.MaxConns)
	}
	if cfg.Database.MinConns != 5 {
		t.Errorf("Database.MinConns = %d, want 5", cfg.Database.MinConns)
	}
	if cfg.AcademicYear != "2024/2025" {
		t.Errorf("AcademicYear = %q, want 2024/2025", cfg.AcademicYear)
	}
	if cfg.Auth.SessionTTL != 12 {
		t.Errorf("Auth.SessionTTL = %d, want 12", cfg.Auth.SessionTTL)
	}
	if cfg.AI.Model != "gpt-4o-mini" {
		t.Errorf("AI.Model = %q, want gpt-4o-mini", cfg.AI.Model)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("KURIKULUM_SERVER_PORT", "9090")
	t.Setenv("KURIKULUM_ACADEMIC_YEAR", "2025/2026")
	t.Setenv("KURIKULUM_AI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.AcademicYear != "2025/2026" {
		t.Errorf("AcademicYear = %q, want 2025/2026", cfg.AcademicYear)
	}
	if !cfg.HasAIProvider() {
		t.Error("HasAIProvider() = false, want true")
	}
}

func TestValidate_AcademicYear(t *testing.T) {
	tests := []struct {
		name    string
		year    string
		wantErr bool
	}{
		{"valid", "2024/2025", false},
		{"not consecutive", "2024/2026", true},
		{"malformed", "2024-2025", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, _ := Load()
			cfg.AcademicYear = tt.year

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_SessionTTL(t *testing.T) {
	clearEnv(t)
	cfg, _ := Load()
	cfg.Auth.SessionTTL = 0

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject zero session TTL")
	}
}

func TestHasAIProvider_Empty(t *testing.T) {
	clearEnv(t)
	cfg, _ := Load()

	if cfg.HasAIProvider() {
		t.Error("HasAIProvider() = true, want false with no API key")
	}
}
