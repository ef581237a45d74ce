package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write settings file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.ListenAddr != ":8080" {
		t.Errorf("unexpected listen addr: %s", s.ListenAddr)
	}
	if s.AgentURL != "http://localhost:8081/chat" {
		t.Errorf("unexpected agent url: %s", s.AgentURL)
	}
	if s.StorageBucketName != "personal-expense-assistant-receipts" {
		t.Errorf("unexpected bucket: %s", s.StorageBucketName)
	}
	if s.DBType != "sqlite" || s.LogFormat != "json" {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := writeSettings(t, `
gcloud_project_id: my-project
agent_url: http://engine:9000/chat
listen_addr: ":9090"
db_type: memory
rate_limit_rps: 5
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.GcloudProjectID != "my-project" {
		t.Errorf("unexpected project: %s", s.GcloudProjectID)
	}
	if s.AgentURL != "http://engine:9000/chat" {
		t.Errorf("unexpected agent url: %s", s.AgentURL)
	}
	if s.ListenAddr != ":9090" || s.DBType != "memory" {
		t.Errorf("unexpected values: %+v", s)
	}
	if s.RateLimitRPS != 5 {
		t.Errorf("unexpected rps: %f", s.RateLimitRPS)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeSettings(t, `
gcloud_project_id: from-yaml
agent_url: http://yaml:8081/chat
`)
	t.Setenv("GCLOUD_PROJECT_ID", "from-env")
	t.Setenv("BACKEND_URL", "http://env:8081/chat")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.GcloudProjectID != "from-env" {
		t.Errorf("environment must win over yaml, got %s", s.GcloudProjectID)
	}
	if s.AgentURL != "http://env:8081/chat" {
		t.Errorf("BACKEND_URL must override agent_url, got %s", s.AgentURL)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeSettings(t, "listen_addr: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
