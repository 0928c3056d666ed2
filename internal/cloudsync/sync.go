// Package cloudsync implements the replication engine: copying the
// encrypted container between the primary location and a replica
// directory, with staged-write-then-atomic-rename pushes, policy-gated
// pulls, and an optional periodic background sync.
//
// The engine treats the container as an opaque blob and never inspects
// its content — it only copies bytes.
package cloudsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/passlock/internal/common"
	"github.com/dmitrijs2005/passlock/internal/config"
	"github.com/dmitrijs2005/passlock/internal/filex"
	"github.com/dmitrijs2005/passlock/internal/logging"
)

// Manager coordinates replication for one database. All push/pull
// operations serialize on a single engine-wide lock, so at most one sync
// action is in flight at a time; a second caller waits rather than racing
// for the same temp file.
type Manager struct {
	cfg *config.Config
	log logging.Logger

	mu      sync.Mutex // engine-wide sync lock
	syncing atomic.Bool

	timerMu sync.Mutex // guards the auto-sync lifecycle
	stop    chan struct{}
}

func NewManager(cfg *config.Config, log logging.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// Enabled reports whether cloud replication is configured on.
func (m *Manager) Enabled() bool {
	return m.cfg.CloudStorage.Enabled
}

// Push copies the local container to the remote replica. localPath selects
// the source explicitly; when empty, the currently configured database
// path is used (falling back to the effective path if it does not exist).
//
// The copy is staged through a temporary sibling of the target and then
// atomically swapped in with remove-then-rename. On success the current
// time is recorded as the last-sync timestamp.
//
// Push is a no-op returning nil when replication is disabled.
func (m *Manager) Push(ctx context.Context, localPath string) error {
	if !m.Enabled() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncing.Store(true)
	defer m.syncing.Store(false)

	if localPath == "" {
		if p := m.cfg.DatabasePath; p != "" && filex.Exists(p) {
			localPath = p
		} else {
			localPath = m.cfg.EffectiveDatabasePath()
		}
	}

	remotePath := m.cfg.RemoteDatabasePath()
	if remotePath == "" {
		return fmt.Errorf("%w: no remote folder configured", common.ErrSyncUnavailable)
	}

	remoteDir := filepath.Dir(remotePath)
	if !filex.IsDirWritable(remoteDir) {
		return fmt.Errorf("%w: remote folder %s is missing or not writable", common.ErrSyncUnavailable, remoteDir)
	}

	if !filex.Exists(localPath) {
		return fmt.Errorf("local file %s does not exist", localPath)
	}

	m.log.Info(ctx, "pushing to remote", "local", localPath, "remote", remotePath)

	tmpPath := remotePath + ".tmp"
	if err := filex.CopyFile(localPath, tmpPath); err != nil {
		return fmt.Errorf("staging copy: %w", err)
	}
	if err := replaceFile(tmpPath, remotePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing remote file: %w", err)
	}

	if err := m.cfg.SetLastSyncTime(time.Now().Format(time.RFC3339Nano)); err != nil {
		m.log.Warn(ctx, "failed to record sync time", "error", err)
	}
	return nil
}

// Pull copies the remote replica over the local container, subject to the
// configured conflict policy. A missing remote file is not an error:
// there is nothing to pull and Pull returns nil.
//
// localPath selects the destination explicitly; when empty it is derived
// from the configured database path, redirected to the user's documents
// folder when that path is the remote path itself (pulling a file onto
// itself would destroy the source).
func (m *Manager) Pull(ctx context.Context, localPath string) error {
	if !m.Enabled() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncing.Store(true)
	defer m.syncing.Store(false)

	remotePath := m.cfg.RemoteDatabasePath()
	if remotePath == "" {
		return fmt.Errorf("%w: no remote folder configured", common.ErrSyncUnavailable)
	}

	if localPath == "" {
		localPath = m.localDestination(remotePath)
	}

	if !filex.Exists(remotePath) {
		m.log.Info(ctx, "remote file does not exist, nothing to pull", "remote", remotePath)
		return nil
	}

	if filex.Exists(localPath) {
		skip, err := m.resolveConflict(localPath, remotePath)
		if err != nil {
			return err
		}
		if skip {
			m.log.Info(ctx, "conflict policy keeps local file", "policy", m.cfg.CloudStorage.ConflictResolution)
			return nil
		}
	}

	if err := filex.EnsureParentDir(localPath); err != nil {
		return fmt.Errorf("creating local dir: %w", err)
	}

	m.log.Info(ctx, "pulling from remote", "remote", remotePath, "local", localPath)

	if err := filex.CopyFile(remotePath, localPath); err != nil {
		return fmt.Errorf("copying from remote: %w", err)
	}

	info, err := os.Stat(localPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("pulled file %s is missing or empty", localPath)
	}

	if err := m.cfg.SetLastSyncTime(time.Now().Format(time.RFC3339Nano)); err != nil {
		m.log.Warn(ctx, "failed to record sync time", "error", err)
	}
	return nil
}

// localDestination picks where a pull lands when the caller did not say.
func (m *Manager) localDestination(remotePath string) string {
	name := m.cfg.DatabaseFileName()
	orig := m.cfg.DatabasePath

	if orig != "" && filepath.Clean(orig) == filepath.Clean(remotePath) {
		return filepath.Join(userDocumentsDir(), name)
	}
	if orig != "" {
		return orig
	}
	return filepath.Join(userDocumentsDir(), name)
}

// resolveConflict applies the configured policy to an existing local file.
// It reports whether the pull should be skipped.
func (m *Manager) resolveConflict(localPath, remotePath string) (bool, error) {
	switch m.cfg.CloudStorage.ConflictResolution {
	case config.ConflictNewer:
		localInfo, err := os.Stat(localPath)
		if err != nil {
			return false, fmt.Errorf("stat local: %w", err)
		}
		remoteInfo, err := os.Stat(remotePath)
		if err != nil {
			return false, fmt.Errorf("stat remote: %w", err)
		}
		if !localInfo.ModTime().Before(remoteInfo.ModTime()) {
			return true, nil
		}
	case config.ConflictLocal:
		return true, nil
	case config.ConflictAsk:
		// No interactive prompt exists at this layer and choosing a side
		// silently would be wrong either way.
		return false, fmt.Errorf("%w: conflict policy %q requires interactive resolution", common.ErrSyncUnavailable, config.ConflictAsk)
	case config.ConflictRemote:
	}
	return false, nil
}

// ManualSync performs an explicitly requested pull-then-push, each leg
// subject to its policy flag. Unlike the best-effort push during a save,
// a manual sync surfaces the first failure to the caller.
func (m *Manager) ManualSync(ctx context.Context) error {
	if !m.Enabled() {
		return fmt.Errorf("%w: cloud sync is disabled", common.ErrSyncUnavailable)
	}

	if m.cfg.CloudStorage.SyncOnOpen {
		if err := m.Pull(ctx, ""); err != nil {
			return fmt.Errorf("pull from remote: %w", err)
		}
	}
	if m.cfg.CloudStorage.SyncOnSave {
		if err := m.Push(ctx, ""); err != nil {
			return fmt.Errorf("push to remote: %w", err)
		}
	}
	return nil
}

// StartAutoSync schedules a recurring background pull-then-push using the
// configured interval. The task reschedules itself after each completed
// tick, so a slow sync delays the next tick by its own duration. Calling
// StartAutoSync again replaces any existing schedule.
func (m *Manager) StartAutoSync(ctx context.Context) {
	if !m.Enabled() {
		return
	}
	interval := time.Duration(m.cfg.CloudStorage.AutoSyncInterval) * time.Second
	if interval <= 0 {
		return
	}

	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	m.stopLocked()

	stop := make(chan struct{})
	m.stop = stop

	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-timer.C:
				if m.cfg.CloudStorage.SyncEnabled {
					if err := m.Pull(ctx, ""); err != nil {
						m.log.Warn(ctx, "auto-sync pull failed", "error", err)
					}
					if err := m.Push(ctx, ""); err != nil {
						m.log.Warn(ctx, "auto-sync push failed", "error", err)
					}
				}
				timer.Reset(interval)
			}
		}
	}()
}

// StopAutoSync cancels the periodic schedule. It is safe to call when
// nothing is scheduled. An in-flight tick is not interrupted; only future
// ticks are prevented.
func (m *Manager) StopAutoSync() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}

// Status returns a short human-readable description of the sync state.
func (m *Manager) Status() string {
	if !m.Enabled() {
		return "disabled"
	}
	if m.syncing.Load() {
		return "syncing"
	}
	if ts := m.cfg.LastSyncTime(); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			return "last sync: " + t.Format("2006-01-02 15:04:05")
		}
	}
	return "never synced"
}

// replaceFile is a test seam for the atomic swap step.
var replaceFile = filex.ReplaceFile

// userDocumentsDir is a test seam; the default resolves ~/Documents.
var userDocumentsDir = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Documents")
}
