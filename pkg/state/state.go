// Package state provides persistent run-history records for Stagehand
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/stagehand/stagehand/pkg/logger"
	"github.com/stagehand/stagehand/pkg/runner"
	"github.com/stagehand/stagehand/pkg/types"
	"github.com/stagehand/stagehand/pkg/utils"
)

// historyLimit caps how many records a phase file retains
const historyLimit = 20

// RunRecord is one persisted phase invocation
type RunRecord struct {
	Phase      types.Phase        `json:"phase"`
	Invocation string             `json:"invocation"`
	Source     string             `json:"source"`
	Mode       types.DispatchMode `json:"mode"`
	Dispatched int                `json:"dispatched"`
	Awaited    int                `json:"awaited"`
	TimedOut   bool               `json:"timedOut"`
	Duration   time.Duration      `json:"duration"`
	StartedAt  time.Time          `json:"startedAt"`
	ProcessID  int                `json:"processId"`
}

// Manager handles persistent per-phase run history files
type Manager struct {
	stateDir string
	logger   logger.Logger
	mu       sync.Mutex
	cache    map[types.Phase][]RunRecord
}

// NewManager creates a run-history manager rooted at stateDir
func NewManager(stateDir string, log logger.Logger) *Manager {
	historyDir := filepath.Join(stateDir, "history")
	if err := utils.EnsureDirectory(historyDir); err != nil {
		log.Error("failed to create history directory", logger.WithField("error", err))
	}

	return &Manager{
		stateDir: historyDir,
		logger:   log,
		cache:    make(map[types.Phase][]RunRecord),
	}
}

// RecordRun appends an invocation report to the phase's history
func (m *Manager) RecordRun(report *runner.Report, startedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.loadLocked(report.Phase)
	if err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to load run history",
			logger.WithField("phase", report.Phase),
			logger.WithField("error", err))
	}

	records = append(records, RunRecord{
		Phase:      report.Phase,
		Invocation: report.Invocation,
		Source:     report.Source,
		Mode:       report.Mode,
		Dispatched: report.Dispatched,
		Awaited:    report.Awaited,
		TimedOut:   report.TimedOut,
		Duration:   report.Duration,
		StartedAt:  startedAt,
		ProcessID:  os.Getpid(),
	})
	if len(records) > historyLimit {
		records = records[len(records)-historyLimit:]
	}

	m.cache[report.Phase] = records
	return m.saveLocked(report.Phase, records)
}

// History returns the recorded invocations for a phase, oldest first
func (m *Manager) History(phase types.Phase) ([]RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if records, ok := m.cache[phase]; ok {
		return records, nil
	}

	records, err := m.loadLocked(phase)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	m.cache[phase] = records
	return records, nil
}

// Phases lists every phase with recorded history
func (m *Manager) Phases() ([]types.Phase, error) {
	files, err := os.ReadDir(m.stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var phases []types.Phase
	for _, file := range files {
		name := file.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		phases = append(phases, types.Phase(strings.TrimSuffix(name, ".json")))
	}

	return phases, nil
}

func (m *Manager) filePath(phase types.Phase) string {
	return filepath.Join(m.stateDir, string(phase)+".json")
}

func (m *Manager) loadLocked(phase types.Phase) ([]RunRecord, error) {
	data, err := os.ReadFile(m.filePath(phase))
	if err != nil {
		return nil, err
	}

	var records []RunRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}

	return records, nil
}

func (m *Manager) saveLocked(phase types.Phase, records []RunRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := utils.AtomicWriteFile(m.filePath(phase), data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}
