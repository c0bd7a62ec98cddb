package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// DefaultSecretKey is the out-of-the-box token signing secret. It is only
// acceptable outside production.
const DefaultSecretKey = "spineai_secret_key_change_in_production"

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	RAGFlowURL      string   `mapstructure:"RAGFLOW_URL"`
	RAGFlowAPIKey   string   `mapstructure:"RAGFLOW_API_KEY"`
	RAGFlowChatID   string   `mapstructure:"RAGFLOW_CHAT_ID"`
	RAGFlowQueryURL string   `mapstructure:"RAGFLOW_QUERY_URL"`
	GCSBucket       string   `mapstructure:"GCS_BUCKET_NAME"`
	GCSProjectID    string   `mapstructure:"GCS_PROJECT_ID"`
	ProxySecretKey  string   `mapstructure:"PROXY_SECRET_KEY"`
	OpenAIAPIKey    string   `mapstructure:"OPENAI_API_KEY"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("RAGFLOW_URL", "http://localhost:9380/api/v1")
	v.SetDefault("RAGFLOW_CHAT_ID", "8d19a384d25d11f0b8fa76278ce0f2bf")
	v.SetDefault("RAGFLOW_QUERY_URL", "http://ragflow:80/api")
	v.SetDefault("GCS_BUCKET_NAME", "spineai-chat-results")
	v.SetDefault("PROXY_SECRET_KEY", DefaultSecretKey)
	v.SetDefault("CORS_ORIGINS", "*")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("RAGFLOW_URL")
	v.BindEnv("RAGFLOW_API_KEY")
	v.BindEnv("RAGFLOW_CHAT_ID")
	v.BindEnv("RAGFLOW_QUERY_URL")
	v.BindEnv("GCS_BUCKET_NAME")
	v.BindEnv("GCS_PROJECT_ID")
	v.BindEnv("PROXY_SECRET_KEY")
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.IsDev() && cfg.ProxySecretKey == DefaultSecretKey {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: PROXY_SECRET_KEY is still the built-in default.")
		log.Println("WARNING: Tokens minted with it are forgeable by anyone with the code.")
		log.Println("WARNING: Set a unique PROXY_SECRET_KEY before exposing this server.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RAGFlowConfigured reports whether the assistant API key is present.
// Without it the chat route cannot reach the backend.
func (c *Config) RAGFlowConfigured() bool {
	return c.RAGFlowAPIKey != ""
}

// Validate checks that the configuration is safe to run. In production the
// token signing secret must not be the shipped default, and the backend URLs
// must be present.
func (c *Config) Validate() error {
	if c.IsProduction() && c.ProxySecretKey == DefaultSecretKey {
		return fmt.Errorf("PROXY_SECRET_KEY must be changed from the default in production. " +
			"Refusing to start with a forgeable token secret")
	}
	if c.ProxySecretKey == "" {
		return fmt.Errorf("PROXY_SECRET_KEY must not be empty")
	}
	if c.RAGFlowURL == "" {
		return fmt.Errorf("RAGFLOW_URL must not be empty")
	}
	if c.RAGFlowQueryURL == "" {
		return fmt.Errorf("RAGFLOW_QUERY_URL must not be empty")
	}
	return nil
}
