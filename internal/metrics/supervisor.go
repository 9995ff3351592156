package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/multistream/internal/events"
)

var (
	childrenLaunched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "supervisor",
		Name:      "children_launched_total",
		Help:      "Children started",
	})

	childrenLaunchFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "supervisor",
		Name:      "children_launch_failures_total",
		Help:      "Children that failed to start",
	})

	childrenRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "supervisor",
		Name:      "children_running",
		Help:      "Children started and not yet reaped",
	})

	childrenExited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "supervisor",
		Name:      "children_exited_total",
		Help:      "Reaped children by final state",
	}, []string{"state"})

	childExitCode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "supervisor",
		Name:      "child_exit_code",
		Help:      "Exit code of a reaped child",
	}, []string{"child"})

	sweeps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "supervisor",
		Name:      "sweeps_total",
		Help:      "Termination sweeps started",
	})

	buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information",
	}, []string{"version", "commit"})
)

// SetBuildInfo publishes the running build.
func SetBuildInfo(version, commit string) {
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, commit).Set(1)
}

// Subscribe updates the supervisor metrics from bus events. Returns a
// function that stops the updates.
func Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(events.ChildLaunchedEvent) {
			childrenLaunched.Inc()
			childrenRunning.Inc()
		}),
		bus.Subscribe(func(events.ChildLaunchFailedEvent) {
			childrenLaunchFailed.Inc()
		}),
		bus.Subscribe(func(e events.ChildExitedEvent) {
			childrenRunning.Dec()
			childrenExited.WithLabelValues(e.State).Inc()
			childExitCode.WithLabelValues(e.Name).Set(float64(e.ExitCode))
			DeleteFFmpegProgress(e.Name)
		}),
		bus.Subscribe(func(events.SweepStartedEvent) {
			sweeps.Inc()
		}),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Handler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func Handler() http.Handler {
	return promhttp.Handler()
}
