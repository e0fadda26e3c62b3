package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stagehand/stagehand/pkg/config"
	"github.com/stagehand/stagehand/pkg/types"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "stagehand.config.json", `{
		"version": "1.0",
		"scriptRoot": "scripts",
		"moduleRoot": "modules",
		"deadlineWindowMs": 5000
	}`)

	cfg, err := config.NewManager().LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ScriptRoot != filepath.Join(dir, "scripts") {
		t.Errorf("expected scriptRoot resolved against config dir, got %s", cfg.ScriptRoot)
	}
	if cfg.DeadlineWindow() != 5*time.Second {
		t.Errorf("expected 5s window, got %v", cfg.DeadlineWindow())
	}
	if cfg.Interpreter != "/bin/sh" {
		t.Errorf("expected default interpreter, got %s", cfg.Interpreter)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "stagehand.config.yaml", `
version: "1.0"
scriptRoot: scripts
governedPhase: early-init
logLevel: debug
`)

	cfg, err := config.NewManager().LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Governed() != types.Phase("early-init") {
		t.Errorf("expected governed phase early-init, got %s", cfg.Governed())
	}
	if cfg.LogLevel != types.LogLevelDebug {
		t.Errorf("expected debug level, got %s", cfg.LogLevel)
	}
}

func TestLoadConfig_RejectsBadVersion(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "c.json", `{"version": "2.0", "scriptRoot": "scripts"}`)

	if _, err := config.NewManager().LoadConfig(path); err == nil {
		t.Error("expected version rejection")
	}
}

func TestLoadConfig_RejectsEmptyRoots(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "c.json", `{"version": "1.0"}`)

	if _, err := config.NewManager().LoadConfig(path); err == nil {
		t.Error("expected rejection without scriptRoot or moduleRoot")
	}
}

func TestLoadConfig_RejectsNonPositiveWindow(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "c.json", `{"version": "1.0", "scriptRoot": "s", "deadlineWindowMs": 0}`)

	if _, err := config.NewManager().LoadConfig(path); err == nil {
		t.Error("expected rejection of zero window")
	}
}

func TestLoadConfig_RejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "c.json", `{{{not config`)

	if _, err := config.NewManager().LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestDefaults(t *testing.T) {
	cfg := &types.StagehandConfig{Version: "1.0", ScriptRoot: "/scripts"}

	if cfg.Governed() != types.PhasePostFsData {
		t.Errorf("expected default governed phase, got %s", cfg.Governed())
	}
	if cfg.DeadlineWindow() != types.DefaultDeadlineWindow {
		t.Errorf("expected default window, got %v", cfg.DeadlineWindow())
	}
	if !cfg.IsGoverned(types.PhasePostFsData) {
		t.Error("expected post-fs-data to be governed by default")
	}
	if cfg.IsGoverned(types.PhaseServices) {
		t.Error("expected services to be ungoverned")
	}
}

func TestSaveAndFindConfig(t *testing.T) {
	dir := t.TempDir()
	cm := config.NewManager()

	cfg := config.GetDefaultConfig()
	path := filepath.Join(dir, config.DefaultConfigName)
	if err := cm.SaveConfig(cfg, path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	found, err := cm.FindConfig(dir)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found != path {
		t.Errorf("expected %s, got %s", path, found)
	}

	if _, err := cm.LoadConfig(found); err != nil {
		t.Errorf("round-trip load failed: %v", err)
	}
}
