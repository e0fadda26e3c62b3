package types_test

import (
	"testing"
	"time"

	"github.com/stagehand/stagehand/pkg/types"
)

func TestScriptDescriptorDisplay(t *testing.T) {
	plain := types.ScriptDescriptor{Name: "10-mount.sh", Path: "/x/10-mount.sh"}
	if plain.Display() != "10-mount.sh" {
		t.Errorf("expected bare name, got %s", plain.Display())
	}

	fromModule := types.ScriptDescriptor{Name: "post-fs-data.sh", Module: "overlayfs"}
	if fromModule.Display() != "overlayfs/post-fs-data.sh" {
		t.Errorf("expected module-qualified name, got %s", fromModule.Display())
	}
}

func TestDeadlineWindowOverride(t *testing.T) {
	ms := 1500
	cfg := &types.StagehandConfig{DeadlineWindowMs: &ms}

	if cfg.DeadlineWindow() != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", cfg.DeadlineWindow())
	}
}

func TestGovernedPhaseOverride(t *testing.T) {
	cfg := &types.StagehandConfig{GovernedPhase: types.PhaseEarlyInit}

	if !cfg.IsGoverned(types.PhaseEarlyInit) {
		t.Error("expected override phase to be governed")
	}
	if cfg.IsGoverned(types.PhasePostFsData) {
		t.Error("expected default phase to lose governance when overridden")
	}
}
