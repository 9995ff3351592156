package updater

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBackupSaveAndRestore(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "multistream")
	if err := os.WriteFile(exe, []byte("v1"), 0o755); err != nil {
		t.Fatal(err)
	}

	store, err := newBackupStore(filepath.Join(dir, "backup"), discardLogger())
	if err != nil {
		t.Fatalf("newBackupStore failed: %v", err)
	}
	if store.available() {
		t.Fatal("fresh store should have no backup")
	}
	if err := store.restore(); err == nil {
		t.Fatal("restore without backup should fail")
	}

	if err := store.save(exe); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := os.WriteFile(exe, []byte("v2"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := store.restore(); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	data, err := os.ReadFile(exe)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v1" {
		t.Errorf("restored content = %q, want v1", data)
	}
}

func TestBackupReloadedFromDisk(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "multistream")
	if err := os.WriteFile(exe, []byte("v1"), 0o755); err != nil {
		t.Fatal(err)
	}
	backupDir := filepath.Join(dir, "backup")

	first, err := newBackupStore(backupDir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := first.save(exe); err != nil {
		t.Fatal(err)
	}

	second, err := newBackupStore(backupDir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if !second.available() {
		t.Fatal("backup not found by a new store")
	}
	if second.version() != first.version() {
		t.Errorf("version = %q, want %q", second.version(), first.version())
	}

	// A missing binary invalidates the recorded info.
	if err := os.Remove(second.binaryPath()); err != nil {
		t.Fatal(err)
	}
	third, err := newBackupStore(backupDir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if third.available() {
		t.Error("backup reported without its binary")
	}
}

func TestDisabledUpdater(t *testing.T) {
	u := &Updater{state: StateIdle, disabledReason: "read-only", logger: discardLogger()}

	if _, err := u.Check(t.Context()); !HasCode(err, ErrCodeDisabled) {
		t.Errorf("Check error = %v, want DISABLED", err)
	}
	if err := u.Apply(t.Context()); !HasCode(err, ErrCodeDisabled) {
		t.Errorf("Apply error = %v, want DISABLED", err)
	}
	if err := u.Rollback(); !HasCode(err, ErrCodeDisabled) {
		t.Errorf("Rollback error = %v, want DISABLED", err)
	}
	if got := u.Status().State; got != StateIdle {
		t.Errorf("state = %s, want idle", got)
	}
}

func TestTransitionGuards(t *testing.T) {
	u := &Updater{state: StateApplying, logger: discardLogger()}
	if u.transitionTo(StateChecking, StateIdle, StateAvailable) {
		t.Error("transition from applying to checking should be rejected")
	}
	if !u.transitionTo(StateApplied, StateApplying) {
		t.Error("transition from applying to applied should succeed")
	}
}

func TestErrorFormatting(t *testing.T) {
	err := newError(ErrCodeApplyFailed, "failed to apply update", os.ErrPermission)
	if got := err.Error(); got != "APPLY_FAILED: failed to apply update: permission denied" {
		t.Errorf("Error() = %q", got)
	}
	if !HasCode(err, ErrCodeApplyFailed) || HasCode(err, ErrCodeNoUpdate) {
		t.Error("HasCode mismatch")
	}
}
