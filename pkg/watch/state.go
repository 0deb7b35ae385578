package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/Sriram-PR/folio/pkg/site"
)

const stateFileName = "watch_state.json"

// BuildState records the outcome of the last build started by the watcher
type BuildState struct {
	LastRunTime    time.Time `json:"last_run_time"`
	LastRunSuccess bool      `json:"last_run_success"`
	PostsBuilt     int       `json:"posts_built"`
	PostsFailed    int       `json:"posts_failed"`
	PostsSkipped   int       `json:"posts_skipped"`
	Fingerprint    string    `json:"fingerprint"` // Of the watched paths when the build started
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// WatchState contains the persistent state for the watch scheduler
type WatchState struct {
	Build     *BuildState `json:"build,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// StateManager handles persisting and loading watch state
type StateManager struct {
	fs        afero.Fs
	statePath string
	state     WatchState
	mu        sync.RWMutex
}

// NewStateManager creates a new state manager
func NewStateManager(fs afero.Fs, stateDir string) *StateManager {
	return &StateManager{
		fs:        fs,
		statePath: filepath.Join(stateDir, stateFileName),
	}
}

// Load loads the state from disk. A missing file means no build has run yet.
func (m *StateManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := afero.ReadFile(m.fs, m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = WatchState{}
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var state WatchState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	m.state = state
	return nil
}

// Save saves the state to disk
func (m *StateManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return site.WriteFileAtomic(m.fs, m.statePath, data)
}

// Last returns the last recorded build
func (m *StateManager) Last() (BuildState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Build == nil {
		return BuildState{}, false
	}
	return *m.state.Build, true
}

// Record stores the outcome of a build
func (m *StateManager) Record(state BuildState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Build = &state
}

// ShouldRun reports whether a build is due: nothing was built yet, the
// watched paths changed, or the last build failed more than retry ago.
func (m *StateManager) ShouldRun(fingerprint string, retry time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	last := m.state.Build
	if last == nil {
		return true
	}
	if last.Fingerprint != fingerprint {
		return true
	}
	return !last.LastRunSuccess && time.Since(last.LastRunTime) >= retry
}
