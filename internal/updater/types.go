package updater

import (
	"time"
)

// State represents the current state of the update process.
type State string

// Update states.
const (
	StateIdle       State = "idle"
	StateChecking   State = "checking"
	StateAvailable  State = "available"
	StateApplying   State = "applying"
	StateApplied    State = "applied"
	StateError      State = "error"
	StateRolledBack State = "rolled_back"
)

// UpdateInfo describes the latest release compared to the running build.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseNotes    string    `json:"release_notes,omitempty"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	AssetSize       int       `json:"asset_size"`
	UpdateAvailable bool      `json:"update_available"`
}

// Status contains the current state of the updater.
type Status struct {
	State           State      `json:"state"`
	CurrentVersion  string     `json:"current_version"`
	TargetVersion   string     `json:"target_version,omitempty"`
	Error           string     `json:"error,omitempty"`
	LastChecked     *time.Time `json:"last_checked,omitempty"`
	BackupAvailable bool       `json:"backup_available"`
	BackupVersion   string     `json:"backup_version,omitempty"`
}

// Options configures an Updater.
type Options struct {
	Repository string // GitHub repo slug, e.g. "smazurov/multistream"
	Prerelease bool
	// BackupDir holds the previous binary. Defaults to
	// ~/.cache/multistream/backup.
	BackupDir string
}
