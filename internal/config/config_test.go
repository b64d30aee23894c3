package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.SlopeFile == "" {
		t.Fatalf("expected default slope file")
	}
	if cfg.ElevationAPIURL == "" || cfg.OverpassAPIURL == "" {
		t.Fatalf("expected default API endpoints")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SLOPE_FILE", "/etc/snowrecorder/slopes.json")
	t.Setenv("ELEVATION_API_URL", "http://elevation.local")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.SlopeFile != "/etc/snowrecorder/slopes.json" {
		t.Fatalf("expected override slope file")
	}
	if cfg.ElevationAPIURL != "http://elevation.local" {
		t.Fatalf("expected override elevation url")
	}
}
