package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestReadConfig(t *testing.T) {
	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	var cfg Config

	cfg, err = ReadConfig(configPath)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	if cfg.Webserver.Session.ExpiryTime != 7*24*time.Hour {
		t.Errorf("Session.ExpiryTime should be 7 days, got %v", cfg.Webserver.Session.ExpiryTime)
	}

	if cfg.DB.Host == "" {
		t.Error("DB.Host should not be empty")
	}

	if cfg.Auth.Replit.IssuerURL == "" {
		t.Error("Auth.Replit.IssuerURL should not be empty")
	}
}

func TestReadConfig_EnvOverride(t *testing.T) {
	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	t.Setenv("STAFFDESK_CONFIG_JSON", `{"Webserver":{"Port":9999,"URL":"http://example.test"}}`)

	cfg, err := ReadConfig(configPath)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Webserver.Port != 9999 {
		t.Errorf("env override should win, got port %d", cfg.Webserver.Port)
	}

	if cfg.Webserver.URL != "http://example.test" {
		t.Errorf("env override should win, got url %s", cfg.Webserver.URL)
	}
}

func TestValidate(t *testing.T) {
	if err := validate(Config{}); err == nil {
		t.Error("empty config must fail validation")
	}

	c := Config{
		Webserver: Webserver{Port: 8080, URL: "http://localhost"},
		DB:        DB{Name: "staffdesk"},
	}
	if err := validate(c); err != nil {
		t.Errorf("minimal valid config rejected: %v", err)
	}

	c.DB.Name = ""
	if err := validate(c); err == nil {
		t.Error("config without a database name must fail validation")
	}
}
