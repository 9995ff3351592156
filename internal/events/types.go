package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeChildLaunched uint32 = iota + 1
	TypeChildLaunchFailed
	TypeGroupLaunched
	TypeChildExited
	TypeSweepStarted
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ChildLaunchedEvent is published after a child process has started.
type ChildLaunchedEvent struct {
	Index     int       `json:"index"`
	Name      string    `json:"name"`
	PID       int       `json:"pid"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ChildLaunchedEvent.
func (e ChildLaunchedEvent) Type() uint32 { return TypeChildLaunched }

// ChildLaunchFailedEvent is published when a child could not be started.
type ChildLaunchFailedEvent struct {
	Index     int       `json:"index"`
	Name      string    `json:"name"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ChildLaunchFailedEvent.
func (e ChildLaunchFailedEvent) Type() uint32 { return TypeChildLaunchFailed }

// GroupLaunchedEvent is published once a batch launch has finished.
type GroupLaunchedEvent struct {
	Launched  int       `json:"launched"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for GroupLaunchedEvent.
func (e GroupLaunchedEvent) Type() uint32 { return TypeGroupLaunched }

// ChildExitedEvent is published when a child's exit status has been reaped.
// State is "exited" or "terminated".
type ChildExitedEvent struct {
	Index     int       `json:"index"`
	Name      string    `json:"name"`
	PID       int       `json:"pid"`
	State     string    `json:"state"`
	ExitCode  int       `json:"exit_code"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ChildExitedEvent.
func (e ChildExitedEvent) Type() uint32 { return TypeChildExited }

// SweepStartedEvent is published when the supervisor begins terminating
// the group.
type SweepStartedEvent struct {
	Reason    string    `json:"reason"`
	Running   int       `json:"running"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for SweepStartedEvent.
func (e SweepStartedEvent) Type() uint32 { return TypeSweepStarted }
