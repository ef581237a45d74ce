package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Settings holds the full backend configuration.
//
// Values are resolved in priority order: environment variables first, then
// the YAML settings file, then built-in defaults.
type Settings struct {
	// Google Cloud
	GcloudProjectID   string `mapstructure:"gcloud_project_id"`
	GcloudLocation    string `mapstructure:"gcloud_location"`
	StorageBucketName string `mapstructure:"storage_bucket_name"`
	DBCollectionName  string `mapstructure:"db_collection_name"`

	// Agent engine
	AgentURL     string        `mapstructure:"agent_url"`
	AgentAPIKey  string        `mapstructure:"agent_api_key"`
	AgentTimeout time.Duration `mapstructure:"agent_timeout"`

	// HTTP server
	ListenAddr string `mapstructure:"listen_addr"`

	// Persistence
	DBType string `mapstructure:"db_type"` // "memory", "sqlite" or "firestore"
	DBPath string `mapstructure:"db_path"`

	// Artifact storage
	ArtifactBackend string `mapstructure:"artifact_backend"` // "gcs", "local" or "memory"
	ArtifactDir     string `mapstructure:"artifact_dir"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // "json" or "text"

	// Rate limiting
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	// Tracing
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
}

// envBindings maps config keys to the environment variables that override
// them. The names match the original deployment environment.
var envBindings = map[string]string{
	"gcloud_project_id":   "GCLOUD_PROJECT_ID",
	"gcloud_location":     "GCLOUD_LOCATION",
	"storage_bucket_name": "STORAGE_BUCKET_NAME",
	"db_collection_name":  "DB_COLLECTION_NAME",
	"agent_url":           "BACKEND_URL",
	"agent_api_key":       "AGENT_API_KEY",
	"listen_addr":         "LISTEN_ADDR",
	"db_type":             "DB_TYPE",
	"db_path":             "DB_PATH",
	"artifact_backend":    "ARTIFACT_BACKEND",
	"artifact_dir":        "ARTIFACT_DIR",
	"log_level":           "LOG_LEVEL",
	"log_format":          "LOG_FORMAT",
	"otlp_endpoint":       "OTLP_ENDPOINT",
}

func setDefaults(v *viper.Viper) {
	// Every key gets a default so env-only overrides survive Unmarshal
	v.SetDefault("gcloud_project_id", "")
	v.SetDefault("agent_api_key", "")
	v.SetDefault("gcloud_location", "us-central1")
	v.SetDefault("storage_bucket_name", "personal-expense-assistant-receipts")
	v.SetDefault("db_collection_name", "personal-expense-assistant-receipts")
	v.SetDefault("agent_url", "http://localhost:8081/chat")
	v.SetDefault("agent_timeout", 120*time.Second)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("db_type", "sqlite")
	v.SetDefault("db_path", "receipts.db")
	v.SetDefault("artifact_backend", "local")
	v.SetDefault("artifact_dir", "./artifacts")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_format", "json")
	v.SetDefault("rate_limit_rps", 10.0)
	v.SetDefault("rate_limit_burst", 20)
	v.SetDefault("tracing_enabled", false)
	v.SetDefault("otlp_endpoint", "localhost:4318")
}

// Load reads settings from the given YAML file (settings.yaml by default),
// applying environment variable overrides on top.
//
// A missing settings file is not an error: defaults plus environment
// variables are enough to run.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path == "" {
		path = "settings.yaml"
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			// File exists but could not be parsed
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &settings, nil
}
