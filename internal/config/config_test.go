package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		_ = os.Unsetenv(env)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.URL != DefaultAPIURL {
		t.Fatalf("api url = %q", cfg.API.URL)
	}
	if cfg.API.Timeout != 10*time.Minute {
		t.Fatalf("timeout = %v", cfg.API.Timeout)
	}
	if cfg.Generation.Model != "gemini" || cfg.Generation.Persona != "neuraforge" {
		t.Fatalf("generation = %+v", cfg.Generation)
	}
	if cfg.Generation.QualityThreshold != 0.8 || cfg.Generation.MaxIterations != 3 {
		t.Fatalf("generation tuning = %+v", cfg.Generation)
	}
	if cfg.Output.Format != "json" || cfg.Log.Level != "warn" {
		t.Fatalf("output/log = %+v %+v", cfg.Output, cfg.Log)
	}
	if cfg.Dir != dir {
		t.Fatalf("dir = %q", cfg.Dir)
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yaml := "api:\n  url: http://file.example/\n  key: file-key\ngeneration:\n  model: openai\n  persona: file-persona\n"
	if err := os.WriteFile(Path(dir), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.URL != "http://file.example" {
		t.Fatalf("file url = %q (want trailing slash trimmed)", cfg.API.URL)
	}
	if cfg.Generation.Model != "openai" {
		t.Fatalf("file model = %q", cfg.Generation.Model)
	}

	t.Setenv("QUIBO_MODEL", "claude")
	t.Setenv("QUIBO_API_KEY", "env-key")
	cfg, err = Load(dir, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generation.Model != "claude" || cfg.API.Key != "env-key" {
		t.Fatalf("env did not win over file: %+v %+v", cfg.Generation, cfg.API)
	}
	if cfg.Generation.Persona != "file-persona" {
		t.Fatalf("persona = %q", cfg.Generation.Persona)
	}

	cfg, err = Load(dir, map[string]any{"generation.model": "deepseek"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generation.Model != "deepseek" {
		t.Fatalf("flag did not win over env: %q", cfg.Generation.Model)
	}
}

func TestLoad_UnknownOverride(t *testing.T) {
	clearEnv(t)
	if _, err := Load(t.TempDir(), map[string]any{"nope": 1}); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte("api: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDir_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigDir, "/tmp/quibo-test")
	got, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/quibo-test" {
		t.Fatalf("Dir = %q", got)
	}
}

func TestInitAndSet(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "nested")

	created, err := Init(dir)
	if err != nil || !created {
		t.Fatalf("Init created=%v err=%v", created, err)
	}
	created, err = Init(dir)
	if err != nil || created {
		t.Fatalf("second Init created=%v err=%v", created, err)
	}

	if err := Set(dir, "generation.persona", "student"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Set(dir, "bogus.key", "x"); err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Fatalf("Set bogus err = %v", err)
	}

	cfg, err := Load(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Generation.Persona != "student" {
		t.Fatalf("persona = %q", cfg.Generation.Persona)
	}
	if cfg.Generation.Model != "gemini" {
		t.Fatalf("Set lost defaults written by Init: model = %q", cfg.Generation.Model)
	}
}

func TestRedacted(t *testing.T) {
	c := Config{API: APIConfig{Key: "sk-123456789"}, Auth: AuthConfig{AnonKey: "ab"}}
	r := c.Redacted()
	if r.API.Key != "****6789" || r.Auth.AnonKey != "****" {
		t.Fatalf("redacted = %+v %+v", r.API, r.Auth)
	}
	if c.API.Key != "sk-123456789" {
		t.Fatalf("original mutated")
	}
}

func TestState_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	st, err := LoadState(dir)
	if err != nil {
		t.Fatal(err)
	}
	if st.CurrentProjectID != "" {
		t.Fatalf("expected empty state, got %+v", st)
	}

	if err := SaveState(dir, State{CurrentProjectID: "p1", CurrentProjectName: "demo"}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	st, err = LoadState(dir)
	if err != nil {
		t.Fatal(err)
	}
	if st.CurrentProjectID != "p1" || st.CurrentProjectName != "demo" || st.UpdatedAt.IsZero() {
		t.Fatalf("state = %+v", st)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}
