package registry

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/wilhelmsk/core/internal/domain/entities"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
)

const seedYAML = `
paths:
  electrical.switches.anchorLight.state:
    value: false
    meta:
      displayName: Anchor Light
      supportsPut: true
  electrical.switches.cabinMode.state:
    meta:
      displayName: Cabin lighting
      supportsPut: true
      possibleValues: ["off", "night", "day"]
  environment.depth.belowTransducer:
    value: 12.4
    meta:
      units: m
  navigation.speedOverGround:
    meta:
      units: m/s
`

func seeded(t *testing.T) *Registry {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/etc/wsk/registry.yaml", []byte(seedYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	r := New(fs, "/etc/wsk/registry.yaml", logger.NewNop())
	if err := r.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return r
}

func TestRegistry_Queries(t *testing.T) {
	r := seeded(t)

	if diff := cmp.Diff([]string{
		"electrical.switches.anchorLight.state",
		"environment.depth.belowTransducer",
	}, r.Paths()); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{
		"electrical.switches.anchorLight.state",
		"electrical.switches.cabinMode.state",
		"environment.depth.belowTransducer",
		"navigation.speedOverGround",
	}, r.AllPaths()); diff != "" {
		t.Errorf("AllPaths mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{
		"electrical.switches.anchorLight.state",
		"electrical.switches.cabinMode.state",
	}, r.PutPaths()); diff != "" {
		t.Errorf("PutPaths mismatch (-want +got):\n%s", diff)
	}

	switches := r.Switches()
	if len(switches) != 1 || switches[0].Path != "electrical.switches.anchorLight.state" {
		t.Errorf("Switches = %+v", switches)
	}
	if string(switches[0].Value) != "false" {
		t.Errorf("switch value = %s, want false", switches[0].Value)
	}

	multi := r.MultiSwitches()
	if len(multi) != 1 || multi[0].Path != "electrical.switches.cabinMode.state" {
		t.Errorf("MultiSwitches = %+v", multi)
	}
}

func TestRegistry_Meta(t *testing.T) {
	r := seeded(t)

	meta, ok := r.Meta("environment.depth.belowTransducer")
	if !ok {
		t.Fatal("Meta not found")
	}
	if meta["units"] != "m" {
		t.Errorf("units = %v, want m", meta["units"])
	}

	if _, ok := r.Meta("vessels.self.environment.depth.belowTransducer"); !ok {
		t.Error("Meta should accept the vessel prefix")
	}
	if _, ok := r.Meta("environment.wind.speedApparent"); ok {
		t.Error("Meta found an unknown path")
	}
}

func TestRegistry_HandleDelta(t *testing.T) {
	r := seeded(t)

	r.HandleDelta(entities.NewDelta("test", "vessels.self.tanks.fuel.0.currentLevel", json.RawMessage(`0.5`), time.Now()))
	r.HandleDelta(entities.NewDelta("test", "vessels.self.electrical.switches.anchorLight.state", json.RawMessage(`true`), time.Now()))

	found := false
	for _, p := range r.Paths() {
		if p == "tanks.fuel.0.currentLevel" {
			found = true
		}
	}
	if !found {
		t.Errorf("Paths() = %v, missing published path", r.Paths())
	}

	var info entities.PathInfo
	ok := false
	for _, sw := range r.Switches() {
		if sw.Path == "electrical.switches.anchorLight.state" {
			info, ok = sw, true
		}
	}
	if !ok {
		t.Fatalf("Switches() = %v, missing anchorLight", r.Switches())
	}
	if string(info.Value) != "true" {
		t.Errorf("live value = %s, want true", info.Value)
	}
	if !info.Meta.SupportsPut() {
		t.Error("live value dropped seeded metadata")
	}
}

func TestRegistry_MissingSeed(t *testing.T) {
	r := New(afero.NewMemMapFs(), "/nope.yaml", logger.NewNop())
	if err := r.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(r.AllPaths()) != 0 {
		t.Errorf("AllPaths = %v, want empty", r.AllPaths())
	}
	if r.PutPaths() == nil {
		t.Error("PutPaths should be an empty slice, not nil")
	}
}

func TestRegistry_BadSeed(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/seed.yaml", []byte("paths: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := New(fs, "/seed.yaml", logger.NewNop()).Load()
	var perr *entities.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load error = %v, want ParseError", err)
	}
}

func TestRegistry_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "registry.yaml")
	fs := afero.NewOsFs()
	if err := afero.WriteFile(fs, seedPath, []byte("paths:\n  a.b:\n    value: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(fs, seedPath, logger.NewNop())
	if err := r.Load(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()

	// Give the watcher a moment to register before changing the file.
	time.Sleep(100 * time.Millisecond)
	if err := afero.WriteFile(fs, seedPath, []byte("paths:\n  a.b:\n    value: 1\n  c.d:\n    value: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for len(r.AllPaths()) != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("seed not reloaded, AllPaths = %v", r.AllPaths())
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

func TestRegistry_WatchMissingDirectory(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "missing", "registry.yaml")
	r := New(afero.NewOsFs(), seed, logger.NewNop())
	if err := r.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("Watch returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
