package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("PORT")
	os.Unsetenv("RAGFLOW_URL")
	os.Unsetenv("RAGFLOW_QUERY_URL")
	os.Unsetenv("GCS_BUCKET_NAME")
	os.Unsetenv("PROXY_SECRET_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.RAGFlowURL != "http://localhost:9380/api/v1" {
		t.Errorf("unexpected default RAGFLOW_URL %s", cfg.RAGFlowURL)
	}
	if cfg.RAGFlowQueryURL != "http://ragflow:80/api" {
		t.Errorf("unexpected default RAGFLOW_QUERY_URL %s", cfg.RAGFlowQueryURL)
	}
	if cfg.GCSBucket != "spineai-chat-results" {
		t.Errorf("unexpected default bucket %s", cfg.GCSBucket)
	}
	if cfg.ProxySecretKey != DefaultSecretKey {
		t.Errorf("expected default secret key, got %s", cfg.ProxySecretKey)
	}
	if cfg.RAGFlowConfigured() {
		t.Error("expected RAGFlowConfigured false without an API key")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("RAGFLOW_API_KEY", "ragflow-test-key")
	os.Setenv("RAGFLOW_URL", "http://ragflow.internal:9380/api/v1")
	defer os.Unsetenv("RAGFLOW_API_KEY")
	defer os.Unsetenv("RAGFLOW_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RAGFlowAPIKey != "ragflow-test-key" {
		t.Errorf("expected RAGFLOW_API_KEY override, got %s", cfg.RAGFlowAPIKey)
	}
	if cfg.RAGFlowURL != "http://ragflow.internal:9380/api/v1" {
		t.Errorf("expected RAGFLOW_URL override, got %s", cfg.RAGFlowURL)
	}
	if !cfg.RAGFlowConfigured() {
		t.Error("expected RAGFlowConfigured true with an API key")
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestValidate_RejectsDefaultSecretInProduction(t *testing.T) {
	c := &Config{
		Env:             "production",
		ProxySecretKey:  DefaultSecretKey,
		RAGFlowURL:      "http://ragflow:9380/api/v1",
		RAGFlowQueryURL: "http://ragflow:80/api",
	}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for default secret in production")
	}

	c.ProxySecretKey = "rotated-secret"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error after rotating secret: %v", err)
	}
}

func TestValidate_AllowsDefaultSecretInDevelopment(t *testing.T) {
	c := &Config{
		Env:             "development",
		ProxySecretKey:  DefaultSecretKey,
		RAGFlowURL:      "http://localhost:9380/api/v1",
		RAGFlowQueryURL: "http://ragflow:80/api",
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RequiresBackendURLs(t *testing.T) {
	c := &Config{Env: "development", ProxySecretKey: "s", RAGFlowQueryURL: "http://ragflow:80/api"}
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing RAGFLOW_URL")
	}

	c = &Config{Env: "development", ProxySecretKey: "s", RAGFlowURL: "http://localhost:9380/api/v1"}
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing RAGFLOW_QUERY_URL")
	}
}
