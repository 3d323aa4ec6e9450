package configs

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ENVIRONMENT", "PORT", "ALLOWED_ORIGINS", "JWT_SECRET", "DATABASE_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDevelopmentDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.JWTSecret == "" {
		t.Error("development default JWT secret missing")
	}
	if cfg.DatabaseDSN == "" {
		t.Error("development default database DSN missing")
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Errorf("AllowedOrigins = %v, want empty", cfg.AllowedOrigins)
	}
}

func TestLoadConfigParsesOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_ORIGINS", " https://a.example.com , https://b.example.com ,, ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Fatalf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
}

func TestLoadConfigRejectsBadPort(t *testing.T) {
	clearEnv(t)

	for _, port := range []string{"not-a-number", "80", "70000"} {
		t.Setenv("PORT", port)
		if _, err := LoadConfig(); err == nil {
			t.Errorf("LoadConfig accepted PORT=%q", port)
		}
	}
}

func TestLoadConfigRequiresSecretsInProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "postgres://app@db/voicelink")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig accepted production config without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "prod_secret")
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig accepted production config without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://app@db/voicelink")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed with full production config: %v", err)
	}
	if cfg.JWTSecret != "prod_secret" {
		t.Errorf("JWTSecret = %q, want prod_secret", cfg.JWTSecret)
	}
}
