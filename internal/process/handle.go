package process

import (
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Handle is the supervisor's view of one launched child.
type Handle struct {
	index     int
	spec      ChildSpec
	cmd       *exec.Cmd
	pid       int
	startedAt time.Time
	logger    *slog.Logger
	tail      *tailBuffer
	stdout    *lineWriter
	stderr    *lineWriter

	// Set by the wait goroutine before the handle is sent on the group's
	// exit channel.
	waitErr error

	mu                 sync.RWMutex
	state              State
	exitCode           int
	exitedAt           time.Time
	terminateRequested bool
	killed             bool
}

// Index returns the child's position in the launched batch.
func (h *Handle) Index() int { return h.index }

// Spec returns the spec the child was launched from.
func (h *Handle) Spec() ChildSpec { return h.spec.clone() }

// PID returns the child's process id.
func (h *Handle) PID() int { return h.pid }

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Status returns a snapshot of the handle.
func (h *Handle) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Status{
		Index:     h.index,
		Name:      h.spec.Name,
		PID:       h.pid,
		State:     h.state,
		ExitCode:  h.exitCode,
		StartedAt: h.startedAt,
		ExitedAt:  h.exitedAt,
	}
}

// Terminate requests termination with sig. It is best-effort: a child that
// has already exited (reaped or not), or is not found by the OS, is
// silently ignored and keeps its own exit status, and a repeated request
// is a no-op. Only genuine signalling failures are returned.
func (h *Handle) Terminate(sig os.Signal) error {
	h.mu.RLock()
	skip := h.state != StateRunning || h.terminateRequested
	h.mu.RUnlock()
	if skip {
		return nil
	}
	if processExited(h.cmd.Process) {
		h.logger.Debug("Child already exited, termination skipped")
		return nil
	}

	if err := signalGroup(h.cmd.Process, sig); err != nil {
		if isProcessGone(err) {
			h.logger.Debug("Child already gone, termination skipped")
			return nil
		}
		return newError(ErrCodeTerminationFailed, h.index, h.spec.Name, "failed to send "+sig.String(), err)
	}

	h.mu.Lock()
	h.terminateRequested = true
	h.mu.Unlock()
	h.logger.Info("Termination requested", "signal", sig.String())
	return nil
}

// kill forcefully kills the child's process group, ignoring children that
// are already gone.
func (h *Handle) kill() error {
	h.mu.RLock()
	skip := h.state != StateRunning || h.killed
	h.mu.RUnlock()
	if skip {
		return nil
	}
	if processExited(h.cmd.Process) {
		return nil
	}

	if err := signalGroup(h.cmd.Process, os.Kill); err != nil {
		if isProcessGone(err) {
			return nil
		}
		return newError(ErrCodeTerminationFailed, h.index, h.spec.Name, "failed to kill", err)
	}

	h.mu.Lock()
	h.killed = true
	h.terminateRequested = true
	h.mu.Unlock()
	return nil
}

// finish records the reaped exit status. A child whose exit followed a
// delivered termination request is Terminated, otherwise Exited.
func (h *Handle) finish() Outcome {
	h.mu.Lock()
	h.exitCode = exitCodeFromError(h.waitErr)
	h.exitedAt = time.Now()
	if h.terminateRequested {
		h.state = StateTerminated
	} else {
		h.state = StateExited
	}
	h.mu.Unlock()

	outcome := Outcome{Status: h.Status()}
	if outcome.State == StateExited && outcome.ExitCode != 0 {
		outcome.Tail = h.tail.Lines()
	}
	return outcome
}
