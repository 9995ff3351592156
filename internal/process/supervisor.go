package process

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/smazurov/multistream/internal/events"
)

const (
	defaultGracePeriod = 5 * time.Second
	defaultKillTimeout = 5 * time.Second
	defaultWaitDelay   = 2 * time.Second
	defaultTailLines   = 20
)

// InterruptSource installs an interrupt handler and returns its channel
// together with a function that uninstalls it.
type InterruptSource func() (<-chan os.Signal, func())

// Supervisor launches batches of children and waits for them as a group.
type Supervisor struct {
	logger       *slog.Logger
	outputLogger *slog.Logger
	logParser    LogParser
	output       OutputHandler
	bus          *events.Bus
	gracePeriod  time.Duration
	killTimeout  time.Duration
	waitDelay    time.Duration
	tailLines    int
	stopSignal   os.Signal
	interrupts   InterruptSource

	mu    sync.RWMutex
	group *Group
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger for supervisor operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = logger }
}

// WithLogParser sets the logger used for child output and the parser that
// extracts a level from each line. A nil parser logs every line at info.
func WithLogParser(logger *slog.Logger, parser LogParser) Option {
	return func(s *Supervisor) {
		s.outputLogger = logger
		s.logParser = parser
	}
}

// WithOutputHandler passes every line of child output to h.
func WithOutputHandler(h OutputHandler) Option {
	return func(s *Supervisor) { s.output = h }
}

// WithBus publishes lifecycle events to bus.
func WithBus(bus *events.Bus) Option {
	return func(s *Supervisor) { s.bus = bus }
}

// WithGracePeriod sets how long terminated children get before they are
// killed. Zero or negative disables the forced kill.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Supervisor) { s.gracePeriod = d }
}

// WithKillTimeout sets how long to wait after a forced kill before
// reporting children that still have not exited.
func WithKillTimeout(d time.Duration) Option {
	return func(s *Supervisor) { s.killTimeout = d }
}

// WithStopSignal sets the signal sent to running children on interrupt.
func WithStopSignal(sig os.Signal) Option {
	return func(s *Supervisor) { s.stopSignal = sig }
}

// WithInterrupts replaces the OS interrupt handler installed by WaitAll.
func WithInterrupts(source InterruptSource) Option {
	return func(s *Supervisor) { s.interrupts = source }
}

// WithTailLines sets how many output lines are kept per child for the
// final report. Zero disables the tail.
func WithTailLines(n int) Option {
	return func(s *Supervisor) { s.tailLines = n }
}

// NewSupervisor creates a supervisor.
func NewSupervisor(opts ...Option) *Supervisor {
	s := &Supervisor{
		logger:      slog.Default(),
		gracePeriod: defaultGracePeriod,
		killTimeout: defaultKillTimeout,
		waitDelay:   defaultWaitDelay,
		tailLines:   defaultTailLines,
		stopSignal:  os.Interrupt,
		interrupts:  notifyInterrupts,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.outputLogger == nil {
		s.outputLogger = s.logger
	}
	return s
}

// notifyInterrupts catches SIGINT and SIGTERM until the returned function
// is called.
func notifyInterrupts() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch, func() { signal.Stop(ch) }
}

// Group is the ordered set of children started by one LaunchAll call.
type Group struct {
	handles []*Handle
	exits   chan *Handle

	// Installed by LaunchAll, removed when WaitAll returns.
	interrupts     <-chan os.Signal
	stopInterrupts func()
}

// Handles returns the launched children in launch order.
func (g *Group) Handles() []*Handle {
	return slices.Clone(g.handles)
}

// Len returns the number of launched children.
func (g *Group) Len() int {
	return len(g.handles)
}

// Snapshot returns the status of every child in launch order.
func (g *Group) Snapshot() []Status {
	statuses := make([]Status, len(g.handles))
	for i, h := range g.handles {
		statuses[i] = h.Status()
	}
	return statuses
}

// takeInterrupts hands the handler installed by LaunchAll to the caller,
// installing one from source if the group has none.
func (g *Group) takeInterrupts(source InterruptSource) (<-chan os.Signal, func()) {
	ch, stop := g.interrupts, g.stopInterrupts
	g.interrupts, g.stopInterrupts = nil, nil
	if ch == nil {
		return source()
	}
	return ch, stop
}

func (g *Group) running() int {
	n := 0
	for _, h := range g.handles {
		if h.State() == StateRunning {
			n++
		}
	}
	return n
}

// LaunchAll starts every spec in input order. Launching is best effort: a
// spec that cannot be started is reported as a LAUNCH_FAILED error carrying
// its input position, and the remaining specs are still launched. The
// returned group holds only the children that started. An empty batch is
// rejected with EMPTY_BATCH before anything is started.
//
// The interrupt handler is installed before the first child starts, so an
// interrupt arriving between LaunchAll and WaitAll is delivered to WaitAll
// rather than killing the supervisor. Every returned group must be passed
// to WaitAll, which removes the handler.
func (s *Supervisor) LaunchAll(specs []ChildSpec) (*Group, []*Error, error) {
	if len(specs) == 0 {
		return nil, nil, newError(ErrCodeEmptyBatch, -1, "", "nothing to supervise", nil)
	}

	g := &Group{
		handles: make([]*Handle, 0, len(specs)),
		exits:   make(chan *Handle, len(specs)),
	}
	g.interrupts, g.stopInterrupts = s.interrupts()
	var failures []*Error

	for i, spec := range specs {
		h, err := s.start(i, spec.clone(), g.exits)
		if err != nil {
			s.logger.Error("Failed to launch child", "index", i, "child", spec.Name, "error", err)
			failures = append(failures, err)
			s.bus.Publish(events.ChildLaunchFailedEvent{
				Index:     i,
				Name:      spec.Name,
				Error:     err.Error(),
				Timestamp: time.Now(),
			})
			continue
		}
		g.handles = append(g.handles, h)
		s.bus.Publish(events.ChildLaunchedEvent{
			Index:     i,
			Name:      spec.Name,
			PID:       h.pid,
			Timestamp: h.startedAt,
		})
	}

	s.mu.Lock()
	s.group = g
	s.mu.Unlock()

	s.logger.Info("Launched children", "launched", len(g.handles), "failed", len(failures))
	s.bus.Publish(events.GroupLaunchedEvent{
		Launched:  len(g.handles),
		Failed:    len(failures),
		Timestamp: time.Now(),
	})
	return g, failures, nil
}

func (s *Supervisor) start(index int, spec ChildSpec, exits chan<- *Handle) (*Handle, *Error) {
	if spec.Program == "" {
		return nil, newError(ErrCodeLaunchFailed, index, spec.Name, "empty command", nil)
	}

	cmd := exec.Command(spec.Program, spec.Args...)
	configureProcessGroup(cmd)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.WaitDelay = s.waitDelay

	h := &Handle{
		index:  index,
		spec:   spec,
		cmd:    cmd,
		logger: s.logger.With("child", spec.Name, "index", index),
		tail:   newTailBuffer(s.tailLines),
		state:  StateRunning,
	}
	emit := s.outputFunc(h)
	h.stdout = &lineWriter{source: "stdout", emit: emit}
	h.stderr = &lineWriter{source: "stderr", emit: emit}
	cmd.Stdout = h.stdout
	cmd.Stderr = h.stderr

	if err := cmd.Start(); err != nil {
		return nil, newError(ErrCodeLaunchFailed, index, spec.Name, "failed to start", err)
	}
	h.pid = cmd.Process.Pid
	h.startedAt = time.Now()
	h.logger.Info("Child started", "pid", h.pid)
	h.logger.Debug("Child command", "command", spec.CommandLine())

	go func() {
		h.waitErr = cmd.Wait()
		h.stdout.Flush()
		h.stderr.Flush()
		exits <- h
	}()

	return h, nil
}

// outputFunc returns the line sink for a child's stdout and stderr.
func (s *Supervisor) outputFunc(h *Handle) func(source, line string) {
	logger := s.outputLogger.With("child", h.spec.Name)
	return func(source, line string) {
		h.tail.Write(line)
		if s.output != nil {
			s.output.HandleLine(h.spec.Name, source, line)
		}
		level, msg := slog.LevelInfo, line
		if s.logParser != nil {
			level, msg = s.logParser(line)
		}
		logger.Log(context.Background(), level, msg, "source", source)
	}
}

// WaitAll blocks until every child in g has exited and returns their
// outcomes in launch order. The first interrupt received since LaunchAll
// (or cancellation of ctx) starts a sweep: every child still running is
// sent the stop signal, in launch order. Children still running after the
// grace period are killed. Further interrupts during the sweep are
// ignored. WaitAll never returns while a child is running, and removes
// the interrupt handler before returning.
func (s *Supervisor) WaitAll(ctx context.Context, g *Group) []Outcome {
	sigCh, stop := g.takeInterrupts(s.interrupts)
	defer stop()

	outcomes := make([]Outcome, len(g.handles))
	remaining := len(g.handles)
	if remaining == 0 {
		return outcomes
	}

	var (
		sweeping bool
		graceC   <-chan time.Time
		killC    <-chan time.Time
		ctxDone  = ctx.Done()
	)

	for remaining > 0 {
		select {
		case h := <-g.exits:
			outcome := h.finish()
			outcomes[slices.Index(g.handles, h)] = outcome
			remaining--
			s.reaped(outcome)

		case sig := <-sigCh:
			if sweeping {
				s.logger.Warn("Interrupt ignored, termination already in progress", "signal", sig.String(), "running", remaining)
				continue
			}
			sweeping = true
			graceC = s.sweep(g, "signal: "+sig.String())

		case <-ctxDone:
			ctxDone = nil
			if sweeping {
				continue
			}
			sweeping = true
			graceC = s.sweep(g, context.Cause(ctx).Error())

		case <-graceC:
			graceC = nil
			s.logger.Warn("Grace period expired, killing children", "grace_period", s.gracePeriod, "running", remaining)
			s.killRunning(g)
			if s.killTimeout > 0 {
				killC = time.After(s.killTimeout)
			}

		case <-killC:
			killC = nil
			s.logger.Error("Children did not exit after kill, still waiting", "running", remaining)
		}
	}

	s.logger.Info("All children reaped", "children", len(outcomes))
	return outcomes
}

// sweep requests termination of every running child in launch order and
// returns the grace period timer, or nil when the forced kill is disabled.
func (s *Supervisor) sweep(g *Group, reason string) <-chan time.Time {
	running := g.running()
	s.logger.Info("Terminating children", "reason", reason, "running", running, "signal", s.stopSignal.String())
	s.bus.Publish(events.SweepStartedEvent{
		Reason:    reason,
		Running:   running,
		Timestamp: time.Now(),
	})

	for _, h := range g.handles {
		if err := h.Terminate(s.stopSignal); err != nil {
			s.logger.Error("Failed to terminate child", "error", err)
		}
	}

	if s.gracePeriod <= 0 {
		return nil
	}
	return time.After(s.gracePeriod)
}

func (s *Supervisor) killRunning(g *Group) {
	for _, h := range g.handles {
		if err := h.kill(); err != nil {
			s.logger.Error("Failed to kill child", "error", err)
		}
	}
}

func (s *Supervisor) reaped(o Outcome) {
	attrs := []any{"index", o.Index, "child", o.Name, "pid", o.PID, "state", o.State, "exit_code", o.ExitCode}
	if o.State == StateExited && o.ExitCode != 0 {
		s.logger.Warn("Child exited", attrs...)
	} else {
		s.logger.Info("Child exited", attrs...)
	}
	s.bus.Publish(events.ChildExitedEvent{
		Index:     o.Index,
		Name:      o.Name,
		PID:       o.PID,
		State:     string(o.State),
		ExitCode:  o.ExitCode,
		Timestamp: o.ExitedAt,
	})
}

// Snapshot returns the status of the most recently launched group, or nil
// before the first launch.
func (s *Supervisor) Snapshot() []Status {
	s.mu.RLock()
	g := s.group
	s.mu.RUnlock()
	if g == nil {
		return nil
	}
	return g.Snapshot()
}
