package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesAvailable = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadplayer_frames_available_total",
		Help: "Total number of frames the decoder made available to the texture bridge",
	}, []string{"name"})
	FramesLatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadplayer_frames_latched_total",
		Help: "Total number of frames latched into the GPU texture",
	}, []string{"name"})
	FramesMissing = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadplayer_frames_missing_total",
		Help: "Total number of frame notifications with no queued frame behind them",
	}, []string{"name"})
	Draws = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadplayer_draws_total",
		Help: "Total number of quad draw calls issued",
	}, []string{"name"})
	DecoderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadplayer_decoder_errors_total",
		Help: "Total number of errors reported by the decode engine",
	}, []string{"name", "engine"})
	SessionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "quadplayer_session_state",
		Help: "Current decoder session state (0 idle, 1 preparing, 2 playing, 3 completed, 4 stopped, 5 failed)",
	}, []string{"name"})
)

type StreamMetrics struct {
	FramesAvailable prometheus.Counter
	FramesLatched   prometheus.Counter
	FramesMissing   prometheus.Counter
	Draws           prometheus.Counter
}

func NewStreamMetrics(name string) StreamMetrics {
	s := StreamMetrics{
		FramesAvailable: FramesAvailable.WithLabelValues(name),
		FramesLatched:   FramesLatched.WithLabelValues(name),
		FramesMissing:   FramesMissing.WithLabelValues(name),
		Draws:           Draws.WithLabelValues(name),
	}
	s.FramesAvailable.Add(0)
	s.FramesLatched.Add(0)
	s.FramesMissing.Add(0)
	s.Draws.Add(0)
	return s
}

type SessionMetrics struct {
	Errors prometheus.Counter
	State  prometheus.Gauge
}

func NewSessionMetrics(name string, engine string) SessionMetrics {
	s := SessionMetrics{
		Errors: DecoderErrors.WithLabelValues(name, engine),
		State:  SessionState.WithLabelValues(name),
	}
	s.Errors.Add(0)
	return s
}

// Handler should usually be mounted at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
