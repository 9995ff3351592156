package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/smazurov/multistream/internal/api"
	"github.com/smazurov/multistream/internal/config"
	"github.com/smazurov/multistream/internal/events"
	"github.com/smazurov/multistream/internal/ffmpeg"
	"github.com/smazurov/multistream/internal/logging"
	"github.com/smazurov/multistream/internal/metrics"
	"github.com/smazurov/multistream/internal/process"
	"github.com/smazurov/multistream/internal/report"
	"github.com/smazurov/multistream/internal/systemd"
	"github.com/smazurov/multistream/internal/version"
	"github.com/spf13/cobra"
)

const recentLogEntries = 500

var errConfigReloaded = errors.New("config reloaded")

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "run [flags] key...",
		Short: "Launch one relay per stream key and supervise them",
		Long: `Launch one ffmpeg relay per stream key and wait for all of them.

On SIGINT or SIGTERM every relay still running is sent the stop signal, in
launch order, and killed if it has not exited after the grace period. The
command exits 0 once every relay has been reaped, and 1 only when nothing
could be launched (missing program, invalid keys or targets).`,
		Example: `  multistream run -s rtmp://live.example.com/app key1 key2
  multistream run -t rtmp://a.example/live,rtmp://b.example/live key1 key2 --loop
  multistream run --config streams.yaml --watch --listen :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroup(cmd, global, *opts, args)
		},
	}

	addStreamFlags(cmd.Flags(), opts)
	addSupervisorFlags(cmd.Flags(), opts)
	return cmd
}

func runGroup(cmd *cobra.Command, global *globalOptions, base options, args []string) error {
	opts, err := base.load(cmd, global.Config, args)
	if err != nil {
		return err
	}

	var recent *logging.Recent
	if opts.Listen != "" {
		recent = logging.KeepRecent(recentLogEntries)
	}
	setupLogging(cmd, global)
	logger := logging.GetLogger("main")

	format, err := report.ParseFormat(opts.Report)
	if err != nil {
		return process.NewPreconditionError(err.Error(), nil)
	}
	if opts.Watch {
		if _, err := os.Stat(global.Config); err != nil {
			return process.NewPreconditionError("--watch needs an existing config file", err)
		}
	}

	specs, err := opts.resolve()
	if err != nil {
		return err
	}

	bus := events.New()
	defer metrics.Subscribe(bus)()
	metrics.SetBuildInfo(version.Version, version.Get().GitCommit)

	notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
	defer bus.Subscribe(func(e events.SweepStartedEvent) {
		notifier.Status("Terminating %d children: %s", e.Running, e.Reason)
	})()

	sup := process.NewSupervisor(
		process.WithLogger(logging.GetLogger("supervisor")),
		process.WithLogParser(logging.GetLogger("ffmpeg"), ffmpeg.ParseLogLevel),
		process.WithOutputHandler(metrics.ProgressRecorder{}),
		process.WithBus(bus),
		process.WithGracePeriod(opts.GracePeriod),
		process.WithKillTimeout(opts.KillTimeout),
		process.WithTailLines(opts.TailLines),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if opts.Listen != "" {
		server := api.NewServer(&api.Options{
			AuthUsername:   opts.AuthUsername,
			AuthPassword:   opts.AuthPassword,
			Children:       sup,
			EventBus:       bus,
			Logs:           recent,
			MetricsHandler: metrics.Handler(),
			Logger:         logging.GetLogger("api"),
		})
		if err := server.Start(opts.Listen); err != nil {
			return process.NewPreconditionError("failed to start status API", err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
			defer stopCancel()
			if err := server.Stop(stopCtx); err != nil {
				logger.Warn("Failed to stop status API", "error", err)
			}
		}()
	}

	go notifier.Watchdog(ctx)

	var watcher *config.Watcher[[]process.ChildSpec]
	if opts.Watch {
		watcher = config.NewWatcher(global.Config, func(path string) ([]process.ChildSpec, error) {
			next, err := base.load(cmd, path, args)
			if err != nil {
				return nil, err
			}
			return next.resolve()
		}, logging.GetLogger("config"))
		if err := watcher.Start(ctx); err != nil {
			return process.NewPreconditionError("failed to watch config file", err)
		}
		defer func() {
			if err := watcher.Stop(); err != nil {
				logger.Warn("Failed to stop config watcher", "error", err)
			}
		}()
	}

	out := cmd.OutOrStdout()
	for {
		r, next, err := superviseOnce(ctx, sup, watcher, notifier, specs, logger)
		if err != nil {
			return err
		}
		if err := report.Write(out, r, format); err != nil {
			logger.Warn("Failed to write report", "error", err)
		}
		if next == nil {
			notifier.Stopping()
			return nil
		}
		logger.Info("Relaunching children with the reloaded config", "children", len(next))
		notifier.Reloading()
		specs = next
	}
}

// superviseOnce launches specs and waits for the group. When the watcher
// delivers a different child set the group is swept and the new set is
// returned for relaunch.
func superviseOnce(
	ctx context.Context,
	sup *process.Supervisor,
	watcher *config.Watcher[[]process.ChildSpec],
	notifier *systemd.Notifier,
	specs []process.ChildSpec,
	logger *slog.Logger,
) (report.Report, []process.ChildSpec, error) {
	waitCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		mu      sync.Mutex
		pending []process.ChildSpec
	)
	if watcher != nil {
		defer watcher.OnReload(func(next []process.ChildSpec) {
			if sameSpecs(specs, next) {
				logger.Info("Config reloaded, children unchanged")
				return
			}
			mu.Lock()
			pending = next
			mu.Unlock()
			cancel(errConfigReloaded)
		})()
	}

	started := time.Now()
	group, failures, err := sup.LaunchAll(specs)
	if err != nil {
		return report.Report{}, nil, err
	}
	notifier.Ready(group.Len(), len(failures))

	outcomes := sup.WaitAll(waitCtx, group)
	r := report.New(started, outcomes, failures)

	if !errors.Is(context.Cause(waitCtx), errConfigReloaded) {
		return r, nil, nil
	}
	mu.Lock()
	defer mu.Unlock()
	return r, pending, nil
}

func sameSpecs(a, b []process.ChildSpec) bool {
	return slices.EqualFunc(a, b, func(x, y process.ChildSpec) bool {
		return x.Name == y.Name && x.Program == y.Program && slices.Equal(x.Args, y.Args) &&
			slices.Equal(x.Env, y.Env) && x.Dir == y.Dir
	})
}
