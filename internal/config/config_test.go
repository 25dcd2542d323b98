package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"HARMONIZE_INPUT", "HARMONIZE_OUT", "HARMONIZE_PORT",
		"HARMONIZE_VALIDATE", "HARMONIZE_RECURSIVE", "HARMONIZE_MANIFEST",
		"HARMONIZE_MANIFEST_NAME", "HARMONIZE_SANITISE",
		"HARMONIZE_DEFAULT_REASONING", "LOG_LEVEL",
		"DATABASE_URL", "NATS_URL", "NATS_TOKEN",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8760 {
		t.Errorf("Port = %d, want 8760", cfg.Port)
	}
	if !cfg.Validate {
		t.Error("Validate should default to true")
	}
	if !cfg.Recursive {
		t.Error("Recursive should default to true")
	}
	if !cfg.WriteManifest {
		t.Error("WriteManifest should default to true")
	}
	if cfg.ManifestName != "harmony_manifest.csv" {
		t.Errorf("ManifestName = %q", cfg.ManifestName)
	}
	if cfg.Sanitise {
		t.Error("Sanitise should default to false")
	}
	if cfg.DefaultReasoning != "medium" {
		t.Errorf("DefaultReasoning = %q", cfg.DefaultReasoning)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.DatabaseURL != "" || cfg.NatsURL != "" {
		t.Error("store and events endpoints should default empty")
	}
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("HARMONIZE_INPUT", "/data/exports")
	t.Setenv("HARMONIZE_OUT", "/data/out")
	t.Setenv("HARMONIZE_PORT", "9000")
	t.Setenv("HARMONIZE_VALIDATE", "false")
	t.Setenv("HARMONIZE_SANITISE", "true")
	t.Setenv("HARMONIZE_DEFAULT_REASONING", "high")
	t.Setenv("DATABASE_URL", "postgres://localhost/harmonize")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg := Load()

	if cfg.Input != "/data/exports" {
		t.Errorf("Input = %q", cfg.Input)
	}
	if cfg.OutDir != "/data/out" {
		t.Errorf("OutDir = %q", cfg.OutDir)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.Validate {
		t.Error("Validate should be false")
	}
	if !cfg.Sanitise {
		t.Error("Sanitise should be true")
	}
	if cfg.DefaultReasoning != "high" {
		t.Errorf("DefaultReasoning = %q", cfg.DefaultReasoning)
	}
	if cfg.DatabaseURL != "postgres://localhost/harmonize" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.NatsURL != "nats://localhost:4222" {
		t.Errorf("NatsURL = %q", cfg.NatsURL)
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("HARMONIZE_PORT", "not-a-number")
	t.Setenv("HARMONIZE_VALIDATE", "maybe")

	cfg := Load()

	if cfg.Port != 8760 {
		t.Errorf("Port = %d, want fallback 8760", cfg.Port)
	}
	if !cfg.Validate {
		t.Error("unparseable bool should keep the default")
	}
}
