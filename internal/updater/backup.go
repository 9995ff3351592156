// Package updater replaces the running multistream binary with the latest
// GitHub release and keeps one backup for rollback.
package updater

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/smazurov/multistream/internal/version"
)

const (
	backupFilename     = "multistream.backup"
	backupInfoFilename = "backup.json"
)

type backupInfo struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	ExecPath  string    `json:"exec_path"`
}

type backupStore struct {
	mu     sync.RWMutex
	dir    string
	info   *backupInfo
	logger *slog.Logger
}

func defaultBackupDir() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache directory: %w", err)
	}
	return filepath.Join(cache, "multistream", "backup"), nil
}

func newBackupStore(dir string, logger *slog.Logger) (*backupStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	s := &backupStore{dir: dir, logger: logger}
	s.load()
	return s, nil
}

func (s *backupStore) binaryPath() string {
	return filepath.Join(s.dir, backupFilename)
}

func (s *backupStore) infoPath() string {
	return filepath.Join(s.dir, backupInfoFilename)
}

func (s *backupStore) load() {
	data, err := os.ReadFile(s.infoPath())
	if err != nil {
		return
	}

	var info backupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		s.logger.Warn("Failed to parse backup info", "error", err)
		return
	}
	if _, err := os.Stat(s.binaryPath()); err != nil {
		s.logger.Warn("Backup file missing", "path", s.binaryPath())
		return
	}

	s.mu.Lock()
	s.info = &info
	s.mu.Unlock()
	s.logger.Debug("Loaded backup info", "version", info.Version)
}

// save copies execPath into the backup directory and records the running
// version alongside it.
func (s *backupStore) save(execPath string) error {
	if err := copyFile(execPath, s.binaryPath()); err != nil {
		return err
	}

	info := backupInfo{
		Version:   version.Version,
		CreatedAt: time.Now(),
		ExecPath:  execPath,
	}
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal backup info: %w", err)
	}
	if err := os.WriteFile(s.infoPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup info: %w", err)
	}

	s.mu.Lock()
	s.info = &info
	s.mu.Unlock()

	s.logger.Info("Backup created", "version", info.Version, "path", s.binaryPath())
	return nil
}

// restore copies the backup over the binary it was taken from.
func (s *backupStore) restore() error {
	s.mu.RLock()
	info := s.info
	s.mu.RUnlock()
	if info == nil {
		return fmt.Errorf("no backup available")
	}

	if err := copyFile(s.binaryPath(), info.ExecPath); err != nil {
		return err
	}
	s.logger.Info("Backup restored", "version", info.Version, "path", info.ExecPath)
	return nil
}

func (s *backupStore) available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info != nil
}

func (s *backupStore) version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return ""
	}
	return s.info.Version
}

func copyFile(from, to string) error {
	src, err := os.Open(from)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", from, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", to, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy %s: %w", from, err)
	}
	return dst.Close()
}
