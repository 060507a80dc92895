package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setupConfigDir(t *testing.T) string {
	t.Helper()
	color.NoColor = true
	dir := t.TempDir()
	t.Setenv("WSK_CONFIG", "")
	t.Setenv("SIGNALK_NODE_CONFIG_DIR", dir)
	return dir
}

func TestDefaultsCommands(t *testing.T) {
	dir := setupConfigDir(t)
	configFile := ""

	out, err := run(t, NewDefaultsCommand(&configFile), "set", "vessels/self/design/draft", `{"maximum":2.1}`)
	if err != nil {
		t.Fatalf("defaults set: %v", err)
	}
	if !strings.Contains(out, "Defaults Saved: vessels.self.design.draft") {
		t.Errorf("set output = %q", out)
	}

	if _, err := os.Stat(filepath.Join(dir, "settings", "defaults.json")); err != nil {
		t.Fatalf("defaults file not written: %v", err)
	}

	out, err = run(t, NewDefaultsCommand(&configFile), "get", "vessels.self.design.draft.maximum")
	if err != nil {
		t.Fatalf("defaults get: %v", err)
	}
	if strings.TrimSpace(out) != "2.1" {
		t.Errorf("get output = %q, want 2.1", out)
	}

	if _, err := run(t, NewDefaultsCommand(&configFile), "delete", "vessels.self.design.draft"); err != nil {
		t.Fatalf("defaults delete: %v", err)
	}
	if _, err := run(t, NewDefaultsCommand(&configFile), "get", "vessels.self.design.draft"); err == nil {
		t.Error("get after delete succeeded")
	}
}

func TestGaugesCommands(t *testing.T) {
	dir := setupConfigDir(t)
	configFile := ""

	file := filepath.Join(dir, "plugin-config-data", "wilhelmsk-data.json")
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte(`{"gauges":{"RPM":{"title":"RPM","max":6000}}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, NewGaugesCommand(&configFile), "get", "RPM")
	if err != nil {
		t.Fatalf("gauges get: %v", err)
	}
	if !strings.Contains(out, `"max": 6000`) {
		t.Errorf("get output = %q", out)
	}

	if _, err := run(t, NewGaugesCommand(&configFile), "delete", "RPM"); err != nil {
		t.Fatalf("gauges delete: %v", err)
	}

	out, err = run(t, NewGaugesCommand(&configFile), "list")
	if err != nil {
		t.Fatalf("gauges list: %v", err)
	}
	if strings.TrimSpace(out) != "{}" {
		t.Errorf("list output = %q, want {}", out)
	}
}

func TestTokenCommand(t *testing.T) {
	setupConfigDir(t)
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	configFile := ""

	out, err := run(t, NewTokenCommand(&configFile), "--subject", "helm", "--ttl", "1h")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if parts := strings.Split(strings.TrimSpace(out), "."); len(parts) != 3 {
		t.Errorf("token output %q is not a JWT", out)
	}
}

func TestCliPath(t *testing.T) {
	for raw, want := range map[string]string{
		"a/b/c":  "a.b.c",
		"a.b.c":  "a.b.c",
		"single": "single",
	} {
		got, err := cliPath(raw)
		if err != nil || got != want {
			t.Errorf("cliPath(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := cliPath("a..b"); err == nil {
		t.Error("cliPath(a..b) succeeded")
	}
}
