package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveKeys(t *testing.T) {
	t.Setenv("TESTKEY_0", "k0")
	t.Setenv("TESTKEY_1", "  ")
	t.Setenv("TESTKEY_2", "k2")
	t.Setenv("TESTKEY_10", "k10")

	cfg := OpenRouterConfig{KeyEnvPrefix: "TESTKEY", APIKeys: []string{"inline", "k2"}}
	cfg.ResolveKeys()

	want := []string{"inline", "k2", "k0", "k10"}
	if len(cfg.APIKeys) != len(want) {
		t.Fatalf("APIKeys = %v, want %v", cfg.APIKeys, want)
	}
	for i := range want {
		if cfg.APIKeys[i] != want[i] {
			t.Errorf("APIKeys[%d] = %q, want %q", i, cfg.APIKeys[i], want[i])
		}
	}
}

func TestOpenRouterValidate(t *testing.T) {
	valid := OpenRouterConfig{
		BaseURL:        "https://openrouter.ai/api/v1",
		APIKeys:        []string{"k"},
		Models:         []string{"m"},
		AttemptTimeout: time.Second,
	}

	tests := []struct {
		name    string
		mutate  func(c *OpenRouterConfig)
		wantErr bool
	}{
		{"valid", func(c *OpenRouterConfig) {}, false},
		{"no base url", func(c *OpenRouterConfig) { c.BaseURL = "" }, true},
		{"no models", func(c *OpenRouterConfig) { c.Models = nil }, true},
		{"no keys", func(c *OpenRouterConfig) { c.APIKeys = nil }, true},
		{"zero timeout", func(c *OpenRouterConfig) { c.AttemptTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaultsAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("server:\n  port: 9090\noverpass:\n  radius_meters: 5000\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENROUTER_API_KEY_0", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Overpass.RadiusMeters != 5000 {
		t.Errorf("Overpass.RadiusMeters = %d, want 5000", cfg.Overpass.RadiusMeters)
	}
	if cfg.Geocoder.Country != "nigeria" {
		t.Errorf("Geocoder.Country = %q, want nigeria", cfg.Geocoder.Country)
	}
	if cfg.OpenRouter.AttemptTimeout != 20*time.Second {
		t.Errorf("OpenRouter.AttemptTimeout = %v, want 20s", cfg.OpenRouter.AttemptTimeout)
	}
	if len(cfg.OpenRouter.Models) != len(DefaultModels) {
		t.Errorf("OpenRouter.Models = %v, want defaults", cfg.OpenRouter.Models)
	}
	found := false
	for _, k := range cfg.OpenRouter.APIKeys {
		if k == "from-env" {
			found = true
		}
	}
	if !found {
		t.Errorf("OpenRouter.APIKeys = %v, want from-env present", cfg.OpenRouter.APIKeys)
	}
}

func TestDatabaseDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{"sqlite path", DatabaseConfig{Driver: "sqlite", Path: "./data/x.db"}, "./data/x.db"},
		{"postgres url", DatabaseConfig{Driver: "postgres", URL: "postgres://u@h/db"}, "postgres://u@h/db"},
		{
			"postgres fields",
			DatabaseConfig{Driver: "postgres", Host: "h", Port: 5432, User: "u", Password: "p", DBName: "d", SSLMode: "disable"},
			"host=h port=5432 user=u password=p dbname=d sslmode=disable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.DSN(); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}
