package process

import "time"

// State represents the lifecycle state of a launched child.
type State string

// Child states.
const (
	StateRunning    State = "running"    // Started, exit not yet observed
	StateExited     State = "exited"     // Exited on its own
	StateTerminated State = "terminated" // Exited after a termination request
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateExited || s == StateTerminated
}

// Status is a point-in-time view of one child.
type Status struct {
	Index     int       `json:"index"`
	Name      string    `json:"name"`
	PID       int       `json:"pid"`
	State     State     `json:"state"`
	ExitCode  int       `json:"exit_code"`
	StartedAt time.Time `json:"started_at"`
	ExitedAt  time.Time `json:"exited_at"`
}

// Outcome is the final record for a reaped child. Tail holds the last
// output lines of children that exited non-zero on their own.
type Outcome struct {
	Status
	Tail []string `json:"tail,omitempty"`
}
