// Package metrics provides Prometheus metrics for supervised children and
// their ffmpeg progress.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smazurov/multistream/internal/ffmpeg"
)

const namespace = "multistream"

var (
	ffmpegFPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      "fps",
		Help:      "Current encoding FPS",
	}, []string{"child"})

	ffmpegSpeed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      "processing_speed",
		Help:      "Processing speed relative to real time",
	}, []string{"child"})

	ffmpegBitrate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      "bitrate_kbps",
		Help:      "Current output bitrate in kbit/s",
	}, []string{"child"})

	ffmpegDroppedFrames = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      "dropped_frames_total",
		Help:      "Total dropped frames",
	}, []string{"child"})

	// Latest values for the status API.
	progressCache   = make(map[string]ffmpeg.Progress)
	progressCacheMu sync.RWMutex
)

// SetFFmpegProgress records the latest stats line of a child.
func SetFFmpegProgress(child string, p ffmpeg.Progress) {
	ffmpegFPS.WithLabelValues(child).Set(p.FPS)
	ffmpegSpeed.WithLabelValues(child).Set(p.Speed)
	ffmpegBitrate.WithLabelValues(child).Set(p.BitrateKbps)
	ffmpegDroppedFrames.WithLabelValues(child).Set(float64(p.Dropped))

	progressCacheMu.Lock()
	progressCache[child] = p
	progressCacheMu.Unlock()
}

// DeleteFFmpegProgress removes all progress metrics for a child.
func DeleteFFmpegProgress(child string) {
	ffmpegFPS.DeleteLabelValues(child)
	ffmpegSpeed.DeleteLabelValues(child)
	ffmpegBitrate.DeleteLabelValues(child)
	ffmpegDroppedFrames.DeleteLabelValues(child)

	progressCacheMu.Lock()
	delete(progressCache, child)
	progressCacheMu.Unlock()
}

// GetFFmpegProgress returns the latest progress of a child.
func GetFFmpegProgress(child string) (ffmpeg.Progress, bool) {
	progressCacheMu.RLock()
	defer progressCacheMu.RUnlock()
	p, ok := progressCache[child]
	return p, ok
}

// ProgressRecorder feeds ffmpeg stats lines from child output into the
// progress metrics.
type ProgressRecorder struct{}

// HandleLine implements process.OutputHandler.
func (ProgressRecorder) HandleLine(child, _, line string) {
	if p, ok := ffmpeg.ParseProgress(line); ok {
		SetFFmpegProgress(child, p)
	}
}
