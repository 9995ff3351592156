package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/smazurov/multistream/internal/version"
)

// Updater checks GitHub releases and replaces the running executable.
type Updater struct {
	repository selfupdate.Repository
	updater    *selfupdate.Updater
	backups    *backupStore

	mu            sync.RWMutex
	state         State
	latestRelease *selfupdate.Release
	lastChecked   *time.Time
	lastError     error

	enabled        bool
	disabledReason string

	logger *slog.Logger
}

// New creates an updater. When the executable's directory is not writable
// the updater is returned disabled rather than failing.
func New(opts Options, logger *slog.Logger) (*Updater, error) {
	if canWrite, reason := checkWritePermission(); !canWrite {
		logger.Warn("Update disabled", "reason", reason)
		return &Updater{state: StateIdle, disabledReason: reason, logger: logger}, nil
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	dir := opts.BackupDir
	if dir == "" {
		if dir, err = defaultBackupDir(); err != nil {
			return nil, err
		}
	}
	backups, err := newBackupStore(dir, logger)
	if err != nil {
		logger.Warn("Backups disabled", "error", err)
	}

	return &Updater{
		repository: selfupdate.ParseSlug(opts.Repository),
		updater:    updater,
		backups:    backups,
		state:      StateIdle,
		enabled:    true,
		logger:     logger,
	}, nil
}

func checkWritePermission() (bool, string) {
	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Sprintf("failed to get executable path: %v", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return false, fmt.Sprintf("failed to resolve symlinks: %v", err)
	}

	dir := filepath.Dir(exe)
	f, err := os.CreateTemp(dir, ".multistream.update.*")
	if err != nil {
		return false, fmt.Sprintf("no write permission to %s: %v", dir, err)
	}
	f.Close()
	os.Remove(f.Name())
	return true, ""
}

// Enabled reports whether updates can be applied.
func (u *Updater) Enabled() bool {
	return u.enabled
}

// DisabledReason returns why the updater is disabled.
func (u *Updater) DisabledReason() string {
	return u.disabledReason
}

// Check queries GitHub for the latest release without downloading it.
// Development builds always report an update.
func (u *Updater) Check(ctx context.Context) (*UpdateInfo, error) {
	if !u.enabled {
		return nil, newError(ErrCodeDisabled, u.disabledReason, nil)
	}
	if !u.transitionTo(StateChecking, StateIdle, StateAvailable, StateError) {
		return nil, newError(ErrCodeInvalidState, fmt.Sprintf("cannot check for updates in state %s", u.getState()), nil)
	}

	release, found, err := u.updater.DetectLatest(ctx, u.repository)
	if err != nil {
		u.setError(err)
		return nil, newError(ErrCodeCheckFailed, "failed to check for updates", err)
	}

	now := time.Now()
	u.mu.Lock()
	u.lastChecked = &now
	u.mu.Unlock()

	if !found {
		err := fmt.Errorf("repository not found or has no releases")
		u.setError(err)
		return nil, newError(ErrCodeNotFound, err.Error(), nil)
	}

	current := version.Version
	info := &UpdateInfo{
		CurrentVersion: current,
		LatestVersion:  release.Version(),
		PublishedAt:    release.PublishedAt,
	}
	if current != "dev" && !release.GreaterThan(current) {
		u.transitionTo(StateIdle)
		return info, nil
	}

	u.mu.Lock()
	u.latestRelease = release
	u.mu.Unlock()
	u.transitionTo(StateAvailable)

	info.ReleaseNotes = release.ReleaseNotes
	info.ReleaseURL = release.URL
	info.AssetSize = release.AssetByteSize
	info.UpdateAvailable = true
	return info, nil
}

// Apply backs up the running executable and replaces it with the latest
// release. The new binary takes effect on the next start.
func (u *Updater) Apply(ctx context.Context) error {
	if !u.enabled {
		return newError(ErrCodeDisabled, u.disabledReason, nil)
	}

	if u.getState() != StateAvailable {
		info, err := u.Check(ctx)
		if err != nil {
			return err
		}
		if !info.UpdateAvailable {
			return newError(ErrCodeNoUpdate, "already running the latest version", nil)
		}
	}

	if !u.transitionTo(StateApplying, StateAvailable) {
		return newError(ErrCodeInvalidState, fmt.Sprintf("cannot apply update in state %s", u.getState()), nil)
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		u.setError(err)
		return newError(ErrCodeApplyFailed, "failed to get executable path", err)
	}

	if u.backups != nil {
		if err := u.backups.save(exe); err != nil {
			u.setError(err)
			return newError(ErrCodeBackupFailed, "failed to create backup", err)
		}
	}

	u.mu.RLock()
	release := u.latestRelease
	u.mu.RUnlock()

	if err := u.updater.UpdateTo(ctx, release, exe); err != nil {
		u.setError(err)
		u.attemptRollback()
		return newError(ErrCodeApplyFailed, "failed to apply update", err)
	}

	u.transitionTo(StateApplied)
	u.logger.Info("Update applied", "version", release.Version(), "path", exe)
	return nil
}

// Rollback restores the binary saved by the last Apply.
func (u *Updater) Rollback() error {
	if !u.enabled {
		return newError(ErrCodeDisabled, u.disabledReason, nil)
	}
	if u.backups == nil || !u.backups.available() {
		return newError(ErrCodeNoBackup, "no backup available for rollback", nil)
	}
	if err := u.backups.restore(); err != nil {
		return newError(ErrCodeRollbackFailed, "failed to restore backup", err)
	}
	u.transitionTo(StateRolledBack)
	return nil
}

// Status returns the current update state.
func (u *Updater) Status() *Status {
	u.mu.RLock()
	defer u.mu.RUnlock()

	status := &Status{
		State:          u.state,
		CurrentVersion: version.Version,
		LastChecked:    u.lastChecked,
	}
	if u.latestRelease != nil {
		status.TargetVersion = u.latestRelease.Version()
	}
	if u.lastError != nil {
		status.Error = u.lastError.Error()
	}
	if u.backups != nil {
		status.BackupAvailable = u.backups.available()
		status.BackupVersion = u.backups.version()
	}
	return status
}

func (u *Updater) transitionTo(newState State, validFrom ...State) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(validFrom) > 0 && !slices.Contains(validFrom, u.state) {
		return false
	}
	u.logger.Debug("State transition", "from", u.state, "to", newState)
	u.state = newState
	u.lastError = nil
	return true
}

func (u *Updater) getState() State {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.state
}

func (u *Updater) setError(err error) {
	u.mu.Lock()
	u.lastError = err
	u.state = StateError
	u.mu.Unlock()
}

func (u *Updater) attemptRollback() {
	if u.backups == nil || !u.backups.available() {
		u.logger.Error("No backup available for automatic rollback")
		return
	}
	if err := u.backups.restore(); err != nil {
		u.logger.Error("Failed to restore backup", "error", err)
		return
	}
	u.transitionTo(StateRolledBack)
	u.logger.Info("Automatic rollback completed")
}
