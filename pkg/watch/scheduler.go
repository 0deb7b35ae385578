package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/Sriram-PR/folio/pkg/site"
	"github.com/Sriram-PR/folio/pkg/utils"
)

// BuildFunc runs one site build
type BuildFunc func(ctx context.Context) (*site.BuildResult, error)

// Scheduler rebuilds the site whenever the watched paths change
type Scheduler struct {
	fs           afero.Fs
	paths        []string
	interval     time.Duration
	build        BuildFunc
	log          *logrus.Entry
	stateManager *StateManager
}

// NewScheduler creates a new watch scheduler. paths are polled every interval.
func NewScheduler(fs afero.Fs, stateDir string, paths []string, interval time.Duration, build BuildFunc, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		fs:           fs,
		paths:        paths,
		interval:     interval,
		build:        build,
		log:          log,
		stateManager: NewStateManager(fs, stateDir),
	}
}

// Run polls the watched paths and blocks until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("watch interval must be > 0, got %v", s.interval)
	}
	if err := s.stateManager.Load(); err != nil {
		s.log.Warnf("Failed to load watch state: %v (starting fresh)", err)
	}

	s.log.Infof("Watching %v every %s", s.paths, FormatInterval(s.interval))
	s.logLastBuild()

	s.runIfChanged(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Watch scheduler shutting down...")
			return nil
		case <-ticker.C:
			s.runIfChanged(ctx)
		}
	}
}

// runIfChanged builds when the watched paths differ from the last build
func (s *Scheduler) runIfChanged(ctx context.Context) {
	fingerprint, err := Fingerprint(s.fs, s.paths)
	if err != nil {
		s.log.Warnf("Failed to scan watched paths: %v", err)
		return
	}
	if !s.stateManager.ShouldRun(fingerprint, retryInterval(s.interval)) {
		return
	}

	s.log.Info("Changes detected, rebuilding")
	state := BuildState{LastRunTime: time.Now(), Fingerprint: fingerprint}

	result, err := s.build(ctx)
	if ctx.Err() != nil {
		// Interrupted builds are retried on the next start
		return
	}
	switch {
	case err != nil:
		state.ErrorMessage = err.Error()
		s.log.Errorf("Build failed [%s]: %v", utils.CategorizeError(err), err)
	default:
		state.PostsBuilt = result.Manifest.TotalPosts
		state.PostsFailed = len(result.Failures)
		state.PostsSkipped = result.Skipped
		state.LastRunSuccess = state.PostsFailed == 0
		s.log.Infof("Build finished: %d posts, %d skipped, %d failed", state.PostsBuilt, state.PostsSkipped, state.PostsFailed)
	}

	s.stateManager.Record(state)
	if err := s.stateManager.Save(); err != nil {
		s.log.Errorf("Failed to save watch state: %v", err)
	}
}

// logLastBuild logs the build the watcher resumes from
func (s *Scheduler) logLastBuild() {
	last, ok := s.stateManager.Last()
	if !ok {
		s.log.Info("No previous build, building now")
		return
	}
	status := "success"
	if !last.LastRunSuccess {
		status = "failed"
	}
	s.log.Infof("Last build %s (%s, %d posts)", last.LastRunTime.Format(time.RFC3339), status, last.PostsBuilt)
}

// Last returns the most recent build recorded by the scheduler
func (s *Scheduler) Last() (BuildState, bool) {
	return s.stateManager.Last()
}

// retryInterval is how long a failed build waits before it is retried
// without changes: ten polls, between one minute and one hour
func retryInterval(interval time.Duration) time.Duration {
	retry := interval * 10
	if retry < time.Minute {
		retry = time.Minute
	}
	if retry > time.Hour {
		retry = time.Hour
	}
	return retry
}

// Fingerprint hashes the name, size and modification time of every file
// under paths. Missing paths hash as missing rather than failing.
func Fingerprint(fs afero.Fs, paths []string) (string, error) {
	var parts []string
	for _, root := range paths {
		err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == root {
					parts = append(parts, root+"|missing")
					return nil
				}
				return err
			}
			if info.IsDir() {
				return nil
			}
			parts = append(parts, fmt.Sprintf("%s|%d|%d", filepath.ToSlash(path), info.Size(), info.ModTime().UnixNano()))
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("%w: scanning %s: %w", utils.ErrFilesystem, root, err)
		}
	}
	return utils.CalculateContentHash(parts...), nil
}

// FormatInterval formats a duration for display
func FormatInterval(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		if mins > 0 {
			return fmt.Sprintf("%dh%dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}

// ParseInterval parses a duration string with support for days
func ParseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	var days int
	var remaining string
	n, _ := fmt.Sscanf(s, "%dd%s", &days, &remaining)
	if n >= 1 {
		d = time.Duration(days) * 24 * time.Hour
		if remaining != "" {
			extra, err := time.ParseDuration(remaining)
			if err != nil {
				return 0, fmt.Errorf("invalid interval format: %s", s)
			}
			d += extra
		}
		return d, nil
	}

	return 0, fmt.Errorf("invalid interval format: %s (examples: 2s, 30s, 5m, 1h)", s)
}
