package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WSK_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.MountPath != "/plugins/wilhelmsk-plugin" {
		t.Errorf("Server.MountPath = %q", cfg.Server.MountPath)
	}
	if cfg.Server.RequestTimeout != 15*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 15s", cfg.Server.RequestTimeout)
	}
	if got, want := cfg.Storage.GaugesPath(), filepath.Join(".signalk", "plugin-config-data", "wilhelmsk-data.json"); got != want {
		t.Errorf("GaugesPath = %q, want %q", got, want)
	}
	if got, want := cfg.Storage.DefaultsPath(), filepath.Join(".signalk", "settings", "defaults.json"); got != want {
		t.Errorf("DefaultsPath = %q, want %q", got, want)
	}
	if cfg.JWT.Enabled {
		t.Error("JWT should be disabled by default")
	}
	if cfg.Stream.QueueSize != 64 {
		t.Errorf("Stream.QueueSize = %d, want 64", cfg.Stream.QueueSize)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WSK_CONFIG", "")
	t.Setenv("SIGNALK_NODE_CONFIG_DIR", dir)
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("WSK_GAUGES_FILE", "/var/lib/wsk/gauges.json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if got := cfg.Storage.GaugesPath(); got != "/var/lib/wsk/gauges.json" {
		t.Errorf("absolute GaugesPath = %q", got)
	}
	if got, want := cfg.Storage.DefaultsPath(), filepath.Join(dir, "settings", "defaults.json"); got != want {
		t.Errorf("DefaultsPath = %q, want %q", got, want)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("WSK_CONFIG", "")
	file := filepath.Join(t.TempDir(), "wsk.yaml")
	content := `
server:
  mount_path: /
jwt:
  enabled: true
  secret: 0123456789abcdef
registry:
  seed_file: /etc/wsk/registry.yaml
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.MountPath != "/" {
		t.Errorf("Server.MountPath = %q, want /", cfg.Server.MountPath)
	}
	if !cfg.JWT.Enabled || cfg.JWT.Secret != "0123456789abcdef" {
		t.Errorf("JWT = %+v", cfg.JWT)
	}
	if cfg.Registry.SeedFile != "/etc/wsk/registry.yaml" {
		t.Errorf("Registry.SeedFile = %q", cfg.Registry.SeedFile)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "short jwt secret", env: map[string]string{"JWT_ENABLED": "true", "JWT_SECRET": "short"}},
		{name: "trailing slash mount", env: map[string]string{"SERVER_MOUNT_PATH": "/plugins/wsk/"}},
		{name: "relative mount", env: map[string]string{"SERVER_MOUNT_PATH": "plugins"}},
		{name: "port out of range", env: map[string]string{"SERVER_PORT": "70000"}},
		{name: "unknown log format", env: map[string]string{"LOG_FORMAT": "xml"}},
		{name: "file output without name", env: map[string]string{"LOG_OUTPUT": "file"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WSK_CONFIG", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatal("Load succeeded, want validation error")
			}
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("WSK_CONFIG", "")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load succeeded for a missing config file")
	}
}
