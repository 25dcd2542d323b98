package config

import (
	"os"
	"strconv"
)

type Config struct {
	Input            string
	OutDir           string
	Port             int
	Validate         bool
	Recursive        bool
	WriteManifest    bool
	ManifestName     string
	Sanitise         bool
	DefaultReasoning string
	LogLevel         string
	DatabaseURL      string
	NatsURL          string
	NatsToken        string
}

func Load() Config {
	return Config{
		Input:            envStr("HARMONIZE_INPUT", ""),
		OutDir:           envStr("HARMONIZE_OUT", ""),
		Port:             envInt("HARMONIZE_PORT", 8760),
		Validate:         envBool("HARMONIZE_VALIDATE", true),
		Recursive:        envBool("HARMONIZE_RECURSIVE", true),
		WriteManifest:    envBool("HARMONIZE_MANIFEST", true),
		ManifestName:     envStr("HARMONIZE_MANIFEST_NAME", "harmony_manifest.csv"),
		Sanitise:         envBool("HARMONIZE_SANITISE", false),
		DefaultReasoning: envStr("HARMONIZE_DEFAULT_REASONING", "medium"),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		NatsURL:          envStr("NATS_URL", ""),
		NatsToken:        envStr("NATS_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
