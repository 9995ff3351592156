package process

import (
	"os"
	"os/exec"
	"testing"
	"time"
)

func startUnwaited(t *testing.T, name string, args ...string) *exec.Cmd {
	t.Helper()
	cmd := exec.Command(name, args...)
	configureProcessGroup(cmd)
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start %s: %v", name, err)
	}
	return cmd
}

func waitExited(t *testing.T, p *os.Process) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !processExited(p) {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for child to exit")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestProcessExited(t *testing.T) {
	running := startUnwaited(t, "sleep", "30")
	defer func() {
		_ = running.Process.Kill()
		_ = running.Wait()
	}()
	if processExited(running.Process) {
		t.Error("running child reported as exited")
	}

	done := startUnwaited(t, "sh", "-c", "exit 4")
	waitExited(t, done.Process)

	// The check must leave the exit status for Wait.
	err := done.Wait()
	if code := exitCodeFromError(err); code != 4 {
		t.Errorf("exit code after check = %d (err %v), want 4", code, err)
	}
	if !processExited(done.Process) {
		t.Error("reaped child not reported as exited")
	}
}

func TestTerminateUnreapedChildKeepsExited(t *testing.T) {
	cmd := startUnwaited(t, "sh", "-c", "exit 0")
	h := &Handle{
		spec:   ChildSpec{Name: "zombie", Program: "sh"},
		cmd:    cmd,
		pid:    cmd.Process.Pid,
		logger: testLogger(),
		tail:   newTailBuffer(0),
		state:  StateRunning,
	}

	// Exited but not yet reaped, as when the sweep races a child's own exit.
	waitExited(t, cmd.Process)
	if err := h.Terminate(os.Interrupt); err != nil {
		t.Fatalf("Terminate failed: %v", err)
	}
	if err := h.kill(); err != nil {
		t.Fatalf("kill failed: %v", err)
	}

	h.waitErr = cmd.Wait()
	o := h.finish()
	if o.State != StateExited || o.ExitCode != 0 {
		t.Errorf("outcome = %s (%d), want exited (0)", o.State, o.ExitCode)
	}
}
