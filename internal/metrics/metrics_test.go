package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smazurov/multistream/internal/events"
	"github.com/smazurov/multistream/internal/ffmpeg"
)

// eventually polls cond until it holds; bus delivery is asynchronous.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func TestSubscribeCountsLifecycle(t *testing.T) {
	bus := events.New()
	unsub := Subscribe(bus)
	defer unsub()

	launched := testutil.ToFloat64(childrenLaunched)
	failed := testutil.ToFloat64(childrenLaunchFailed)
	terminated := testutil.ToFloat64(childrenExited.WithLabelValues("terminated"))
	sweepCount := testutil.ToFloat64(sweeps)

	bus.Publish(events.ChildLaunchedEvent{Index: 0, Name: "a/k1"})
	bus.Publish(events.ChildLaunchedEvent{Index: 1, Name: "b/k2"})
	bus.Publish(events.ChildLaunchFailedEvent{Index: 2, Name: "c/k3"})
	bus.Publish(events.SweepStartedEvent{Reason: "signal: interrupt", Running: 2})
	bus.Publish(events.ChildExitedEvent{Name: "a/k1", State: "terminated", ExitCode: 130})

	eventually(t, "launch counter", func() bool { return testutil.ToFloat64(childrenLaunched) == launched+2 })
	eventually(t, "failure counter", func() bool { return testutil.ToFloat64(childrenLaunchFailed) == failed+1 })
	eventually(t, "sweep counter", func() bool { return testutil.ToFloat64(sweeps) == sweepCount+1 })
	eventually(t, "exit counter", func() bool {
		return testutil.ToFloat64(childrenExited.WithLabelValues("terminated")) == terminated+1
	})
	eventually(t, "exit code", func() bool { return testutil.ToFloat64(childExitCode.WithLabelValues("a/k1")) == 130 })
}

func TestProgressRecorder(t *testing.T) {
	child := "test/progress"
	defer DeleteFFmpegProgress(child)

	var rec ProgressRecorder
	rec.HandleLine(child, "stderr", "[warning] not a stats line")
	if _, ok := GetFFmpegProgress(child); ok {
		t.Fatal("log line recorded as progress")
	}

	rec.HandleLine(child, "stderr", "frame=  48 fps= 24 q=28.0 size=512kB time=00:00:02.00 bitrate=2097.2kbits/s drop=2 speed=0.99x")
	p, ok := GetFFmpegProgress(child)
	if !ok {
		t.Fatal("expected progress to be recorded")
	}
	if p.FPS != 24 || p.Dropped != 2 {
		t.Errorf("unexpected progress %+v", p)
	}
	if got := testutil.ToFloat64(ffmpegSpeed.WithLabelValues(child)); got != 0.99 {
		t.Errorf("speed = %v, want 0.99", got)
	}

	DeleteFFmpegProgress(child)
	if _, ok := GetFFmpegProgress(child); ok {
		t.Error("progress still cached after delete")
	}
}

func TestExitClearsProgress(t *testing.T) {
	bus := events.New()
	defer Subscribe(bus)()

	child := "test/exit-clears"
	SetFFmpegProgress(child, ffmpeg.Progress{FPS: 30})
	bus.Publish(events.ChildExitedEvent{Name: child, State: "exited"})

	eventually(t, "progress cleared", func() bool {
		_, ok := GetFFmpegProgress(child)
		return !ok
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	SetBuildInfo("1.2.3", "abc123")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`multistream_build_info{commit="abc123",version="1.2.3"} 1`,
		"multistream_supervisor_children_running",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
