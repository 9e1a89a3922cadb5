package config

import (
	"os"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	os.Unsetenv(EnvPort)
	os.Unsetenv(EnvPollMs)
	os.Unsetenv(EnvDragLeaseMs)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("PollInterval() = %v, want 2s", cfg.PollInterval())
	}
	if cfg.DragLeaseTTL() != 30*time.Second {
		t.Errorf("DragLeaseTTL() = %v, want 30s", cfg.DragLeaseTTL())
	}
}

func TestNew_PortFromEnv(t *testing.T) {
	os.Setenv(EnvPort, "9001")
	defer os.Unsetenv(EnvPort)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9001 {
		t.Errorf("Port() = %d, want 9001", cfg.Port())
	}
}

func TestNew_InvalidPort(t *testing.T) {
	os.Setenv(EnvPort, "70000")
	defer os.Unsetenv(EnvPort)

	if _, err := New(); err == nil {
		t.Error("New() should reject out-of-range port")
	}
}

func TestNew_InvalidPollInterval(t *testing.T) {
	os.Setenv(EnvPollMs, "0")
	defer os.Unsetenv(EnvPollMs)

	if _, err := New(); err == nil {
		t.Error("New() should reject non-positive poll interval")
	}
}

func TestNew_BackendFromEnv(t *testing.T) {
	os.Setenv(EnvBackendURL, "http://backend.local")
	os.Setenv(EnvBackendToken, "tok")
	defer os.Unsetenv(EnvBackendURL)
	defer os.Unsetenv(EnvBackendToken)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackendURL() != "http://backend.local" {
		t.Errorf("BackendURL() = %q", cfg.BackendURL())
	}
	if cfg.BackendToken() != "tok" {
		t.Errorf("BackendToken() = %q", cfg.BackendToken())
	}
}

func TestDBPath(t *testing.T) {
	os.Setenv(EnvDataDir, "/tmp/autoclip-test")
	defer os.Unsetenv(EnvDataDir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath() != "/tmp/autoclip-test/"+DBFilename {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
}
