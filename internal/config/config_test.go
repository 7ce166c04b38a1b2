package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "DB_DRIVER", "DB_DSN", "LEADPIPE_STATE_DIR", "REQUEST_DELAY_SEC", "SMTP_PORT", "SEND_SCHEDULE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.DBDriver != "sqlite3" {
		t.Errorf("expected default driver sqlite3, got %q", cfg.DBDriver)
	}
	if cfg.DBDSN != "./data/leadpipe.db" {
		t.Errorf("expected default DSN under state dir, got %q", cfg.DBDSN)
	}
	if cfg.RequestDelay != time.Second {
		t.Errorf("expected default 1s request delay, got %v", cfg.RequestDelay)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("expected default SMTP port 587, got %d", cfg.SMTPPort)
	}
	if cfg.SendSchedule != "*/5 * * * *" {
		t.Errorf("unexpected default schedule %q", cfg.SendSchedule)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://localhost/leadpipe")
	t.Setenv("REQUEST_DELAY_SEC", "2.5")
	t.Setenv("LEADPIPE_STATE_DIR", "/var/lib/leadpipe")

	cfg := Load()

	if cfg.DBDriver != "postgres" {
		t.Errorf("driver override not applied: %q", cfg.DBDriver)
	}
	if cfg.DBDSN != "postgres://localhost/leadpipe" {
		t.Errorf("DSN override not applied: %q", cfg.DBDSN)
	}
	if cfg.RequestDelay != 2500*time.Millisecond {
		t.Errorf("fractional delay not applied: %v", cfg.RequestDelay)
	}
	if cfg.StateDir != "/var/lib/leadpipe" {
		t.Errorf("state dir override not applied: %q", cfg.StateDir)
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for in, want := range cases {
		c := &Config{LogLevel: in}
		if got := c.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
