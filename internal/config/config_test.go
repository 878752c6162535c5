package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIVersion != "v2" {
		t.Fatalf("APIVersion = %q", cfg.APIVersion)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.StorageTTL != 24*time.Hour || cfg.StorageCleanupInterval != time.Hour {
		t.Fatalf("storage durations = %v / %v", cfg.StorageTTL, cfg.StorageCleanupInterval)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GOLEMIO_ACCESS_KEY", "secret")
	t.Setenv("GOLEMIO_STAGING", "true")
	t.Setenv("POLL_INTERVAL", "15")
	t.Setenv("STORAGE_TYPE", "none")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AccessKey != "secret" || !cfg.Staging {
		t.Fatalf("golemio settings not read from env: %+v", cfg.Redacted())
	}
	if cfg.PollInterval != 15*time.Second {
		t.Fatalf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.StorageType != "none" {
		t.Fatalf("StorageType = %q", cfg.StorageType)
	}
	if got := cfg.Redacted().AccessKey; got != "***" {
		t.Fatalf("redacted key = %q", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"zero poll interval": {"POLL_INTERVAL", "0"},
		"unknown log level":  {"LOG_LEVEL", "verbose"},
		"unknown storage":    {"STORAGE_TYPE", "redis"},
		"negative timeout":   {"GOLEMIO_TIMEOUT_SECONDS", "-1"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestLoadClientIgnoresRelaySettings(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "redis")
	t.Setenv("POLL_INTERVAL", "soon")
	t.Setenv("GOLEMIO_ACCESS_KEY", "secret")
	t.Setenv("GOLEMIO_TIMEOUT_SECONDS", "5")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.AccessKey != "secret" || cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("client settings = %+v", cfg.Redacted())
	}

	if _, err := Load(); err == nil {
		t.Fatalf("full Load should still reject the relay settings")
	}
}

func TestLoadClientValidatesClientSettings(t *testing.T) {
	t.Setenv("GOLEMIO_TIMEOUT_SECONDS", "0")
	if _, err := LoadClient(); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
}
