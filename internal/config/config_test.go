package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	os.Setenv("HTTP_ADDRESS", "")
	os.Setenv("OPENAI_MODEL_ID", "")
	os.Setenv("CUSTOMER_DATABASE_PATH", "")
	os.Setenv("AGENT_NAME", "")
	cfg := Load()
	if cfg.HTTPAddress == "" {
		t.Fatalf("expected default http address")
	}
	if cfg.OpenAIModelID == "" {
		t.Fatalf("expected default openai model id")
	}
	if cfg.DatabasePath == "" {
		t.Fatalf("expected default database path")
	}
	if cfg.AgentName == "" {
		t.Fatalf("expected default agent name")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("HTTP_ADDRESS", ":9999")
	os.Setenv("CUSTOMER_DATABASE_PATH", "/tmp/db.json")
	defer os.Setenv("HTTP_ADDRESS", "")
	defer os.Setenv("CUSTOMER_DATABASE_PATH", "")
	cfg := Load()
	if cfg.HTTPAddress != ":9999" {
		t.Fatalf("expected override http address, got %s", cfg.HTTPAddress)
	}
	if cfg.DatabasePath != "/tmp/db.json" {
		t.Fatalf("expected override database path, got %s", cfg.DatabasePath)
	}
}
