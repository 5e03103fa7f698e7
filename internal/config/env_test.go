package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSubstituteEnvVars(t *testing.T) {
	os.Setenv("TEST_VAR", "test_value")
	defer os.Unsetenv("TEST_VAR")

	input := []byte("value: ${TEST_VAR}")
	expected := []byte("value: test_value")

	result := substituteEnvVars(input)

	if string(result) != string(expected) {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestSubstituteEnvVarsNotSet(t *testing.T) {
	os.Unsetenv("NONEXISTENT_VAR")

	input := []byte("value: ${NONEXISTENT_VAR}")
	expected := []byte("value: ${NONEXISTENT_VAR}") // unchanged

	result := substituteEnvVars(input)

	if string(result) != string(expected) {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_DIR", "/srv/hostwatch")

	content := `
storage:
  path: "${TEST_DB_DIR}/hostwatch.db"
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Storage.Path != "/srv/hostwatch/hostwatch.db" {
		t.Errorf("expected substituted path, got %s", cfg.Storage.Path)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvInterval, "0.5")
	t.Setenv(EnvDatabase, "/tmp/override.db")
	t.Setenv(EnvHost, "0.0.0.0")
	t.Setenv(EnvPort, "7000")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Monitoring.IntervalMS != 500 {
		t.Errorf("expected interval 500ms, got %d", cfg.Monitoring.IntervalMS)
	}
	if cfg.Storage.Path != "/tmp/override.db" {
		t.Errorf("expected database override, got %s", cfg.Storage.Path)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 7000 {
		t.Errorf("expected 0.0.0.0:7000, got %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"interval not a number", EnvInterval, "fast"},
		{"interval zero", EnvInterval, "0"},
		{"port not a number", EnvPort, "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := Default()
			if err := cfg.ApplyEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvPort, "6000")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  port: 9090\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 6000 {
		t.Errorf("expected env port 6000 to win, got %d", cfg.Server.Port)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvDatabase, "/var/lib/hostwatch/custom.db")
	t.Setenv(EnvPort, "6000")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Path != "/var/lib/hostwatch/custom.db" {
		t.Errorf("expected database override, got %s", cfg.Storage.Path)
	}
	if cfg.Server.Port != 6000 {
		t.Errorf("expected port 6000, got %d", cfg.Server.Port)
	}
}

func TestFromEnv_MalformedOverride(t *testing.T) {
	t.Setenv(EnvDatabase, "/var/lib/hostwatch/custom.db")
	t.Setenv(EnvPort, "not-a-port")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for malformed port override")
	}
}
