package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/rulesai/pkg/rulesai/inference/simple"
	"github.com/cognicore/rulesai/pkg/rulesai/internalerr"
	"github.com/cognicore/rulesai/pkg/rulesai/store/memstore"
	"github.com/cognicore/rulesai/pkg/rulesai/world"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	writeFile(t, path, `
rules: rules/micro.rules
world: /abs/world.yaml
seed: 42
scoping: last
cycles: 3
costs:
  worker: 2
trace:
  path: trace.db
  keep_cycles: 10
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Rules != filepath.Join(dir, "rules", "micro.rules") {
		t.Errorf("Rules not resolved: %q", cfg.Rules)
	}
	if cfg.World != "/abs/world.yaml" {
		t.Errorf("absolute path changed: %q", cfg.World)
	}
	if cfg.Trace.Path != filepath.Join(dir, "trace.db") {
		t.Errorf("Trace.Path = %q", cfg.Trace.Path)
	}
	if cfg.Seed != 42 || cfg.Cycles != 3 || cfg.Trace.KeepCycles != 10 || cfg.Log.Level != "debug" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	costs := cfg.UnitCosts()
	if costs[world.KindWorker] != 2 {
		t.Errorf("worker cost = %d, want 2", costs[world.KindWorker])
	}
	if costs[world.KindBase] != world.DefaultCosts()[world.KindBase] {
		t.Errorf("base cost should keep its default")
	}
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	writeFile(t, path, "rules: a.rules\nworld: w.yaml\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scoping != "all" || cfg.Cycles != 1 || cfg.Log.Level != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Trace.Path != "" {
		t.Errorf("empty trace path should stay empty, got %q", cfg.Trace.Path)
	}
}

func TestLoadNonExistent(t *testing.T) {
	if _, err := Load("/nonexistent/agent.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	writeFile(t, path, "rules: [unterminated\n")
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Rules, c.World = "r", "w"
		return c
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no rules", func(c *Config) { c.Rules = "" }},
		{"no world", func(c *Config) { c.World = "" }},
		{"bad scoping", func(c *Config) { c.Scoping = "some" }},
		{"zero cycles", func(c *Config) { c.Cycles = 0 }},
		{"negative keep", func(c *Config) { c.Trace.KeepCycles = -1 }},
		{"unknown cost", func(c *Config) { c.Costs = map[string]int{"dragon": 1} }},
		{"resource cost", func(c *Config) { c.Costs = map[string]int{"resource": 1} }},
		{"negative cost", func(c *Config) { c.Costs = map[string]int{"light": -1} }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoaderBuildsComponents(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "micro.rules")
	worldPath := filepath.Join(dir, "world.yaml")
	writeFile(t, rulesPath, "# harvest\ndoHarvest(W,R,B) :- idle(W,\"worker\"); type(R,\"resource\"); own(B,\"base\")\n")
	writeFile(t, worldPath, "player: 0\nresources: 5\nunits:\n  - id: w1\n    type: worker\n")

	cfg := Default()
	cfg.Rules, cfg.World = rulesPath, worldPath
	cfg.Scoping = "last"
	cfg.Seed = 7
	cfg.Trace.Path = filepath.Join(dir, "trace.db")

	comp, err := (&Loader{Config: cfg}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer comp.Store.Close()

	if comp.Program.Len() != 1 {
		t.Errorf("expected 1 clause, got %d", comp.Program.Len())
	}
	if comp.Host.Snapshot().Units[0].ID != "w1" {
		t.Errorf("unexpected snapshot: %+v", comp.Host.Snapshot())
	}
	if comp.Engine.Scoping() != simple.ScopeLastVariable {
		t.Errorf("scoping = %v", comp.Engine.Scoping())
	}
	if _, err := os.Stat(cfg.Trace.Path); err != nil {
		t.Errorf("trace db not created: %v", err)
	}
}

func TestLoaderReportsMissingFiles(t *testing.T) {
	cfg := Default()
	cfg.Rules, cfg.World = "/nonexistent.rules", "/nonexistent.yaml"
	if _, err := (&Loader{Config: cfg}).Load(context.Background()); err == nil {
		t.Error("expected error for missing rules file")
	}

	if _, err := (&Loader{}).Load(context.Background()); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("empty loader should fail validation, got %v", err)
	}
}

func TestLoaderReusesStore(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Rules = filepath.Join(dir, "a.rules")
	cfg.World = filepath.Join(dir, "w.yaml")
	cfg.Trace.Path = filepath.Join(dir, "ignored.db")
	writeFile(t, cfg.Rules, "doAttack(U) :- own(U,\"light\")\n")
	writeFile(t, cfg.World, "player: 0\nunits: []\n")

	shared := memstore.New()
	comp, err := (&Loader{Config: cfg, Store: shared}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if comp.Store != shared {
		t.Error("expected the provided store to be reused")
	}
	if _, err := os.Stat(cfg.Trace.Path); !os.IsNotExist(err) {
		t.Errorf("configured trace store should not be opened: %v", err)
	}
}
