package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfigClampsValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "-1s")
	t.Setenv("RATE_LIMIT_TTL", "1ms")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Fatalf("capacity = %d, want 1", cfg.Capacity)
	}
	if cfg.RefillEvery != time.Second {
		t.Fatalf("refill = %s, want 1s", cfg.RefillEvery)
	}
	if cfg.TTL != time.Second {
		t.Fatalf("ttl = %s, want 1s", cfg.TTL)
	}
}

func TestEnvHelpersFallBackToDefaults(t *testing.T) {
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_INT", "ten")
	t.Setenv("X_DUR", "soon")

	if !envBool("X_BOOL", true) {
		t.Fatal("unparsable bool should keep default")
	}
	if envInt("X_INT", 7) != 7 {
		t.Fatal("unparsable int should keep default")
	}
	if envDur("X_DUR", time.Minute) != time.Minute {
		t.Fatal("unparsable duration should keep default")
	}
	t.Setenv("X_BOOL", "off")
	if envBool("X_BOOL", true) {
		t.Fatal("off should parse as false")
	}
}

func TestLoadQueueDefaults(t *testing.T) {
	for k, v := range map[string]string{
		"APP_ENV": "test", "APP_PORT": "8080", "DB_USER": "root", "DB_HOST": "localhost",
		"DB_PORT": "3306", "DB_NAME": "hotel", "JWT_SECRET": "secret",
	} {
		t.Setenv(k, v)
	}
	cfg := Load()
	if cfg.Queue.BookingQueue != "booking" || cfg.Queue.Wait != 20*time.Second {
		t.Fatalf("unexpected queue defaults: %+v", cfg.Queue)
	}
	if cfg.Queue.EnableCron {
		t.Fatal("cron should be off by default")
	}
	if cfg.AccessTTLMin != 1440 || cfg.AdminAccessTTLMin != 10080 {
		t.Fatalf("unexpected token ttl defaults: %d %d", cfg.AccessTTLMin, cfg.AdminAccessTTLMin)
	}
}
