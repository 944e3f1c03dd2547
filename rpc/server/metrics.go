package server

import (
	"io"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
)

// stage names used for the per-stage timers
const (
	StagePose    = "pose"
	StageCapture = "capture"
	StageWrite   = "write"
	StageCommand = "command"
)

// serverMetrics bundles the Prometheus series (VictoriaMetrics) and the
// in-process timers and meters (go-metrics) of one server
type serverMetrics struct {
	set *vm.Set

	commands        *vm.Counter
	malformed       *vm.Counter
	skipped         *vm.Counter
	rejected        *vm.Counter
	writeErrors     *vm.Counter
	serializeErrors *vm.Counter
	captureErrors   *vm.Counter
	ticks           *vm.Counter
	imageBytes      *vm.Histogram
	commandTime     *vm.Histogram

	registry     gometrics.Registry
	timers       map[string]gometrics.Timer
	commandMeter gometrics.Meter
	imageSizes   *SizeHistogram
}

func newServerMetrics(queueLen func() float64, connected func() float64) *serverMetrics {
	set := vm.NewSet()
	registry := gometrics.NewRegistry()

	m := &serverMetrics{
		set:             set,
		commands:        set.NewCounter(`synthd_commands_total`),
		malformed:       set.NewCounter(`synthd_commands_malformed_total`),
		skipped:         set.NewCounter(`synthd_commands_unanswered_total`),
		rejected:        set.NewCounter(`synthd_commands_rejected_total`),
		writeErrors:     set.NewCounter(`synthd_write_errors_total`),
		captureErrors:   set.NewCounter(`synthd_capture_errors_total`),
		serializeErrors: set.NewCounter(`synthd_serialize_errors_total`),
		ticks:           set.NewCounter(`synthd_dispatch_ticks_total`),
		imageBytes:      set.NewHistogram(`synthd_image_bytes`),
		commandTime:     set.NewHistogram(`synthd_command_duration_seconds`),
		registry:        registry,
		timers:          make(map[string]gometrics.Timer),
		commandMeter:    gometrics.GetOrRegisterMeter("commands", registry),
		imageSizes:      NewSizeHistogram(),
	}
	set.NewGauge(`synthd_queue_length`, queueLen)
	set.NewGauge(`synthd_client_connected`, connected)

	for _, stage := range []string{StagePose, StageCapture, StageWrite, StageCommand} {
		m.timers[stage] = gometrics.GetOrRegisterTimer("stage."+stage, registry)
	}
	return m
}

// since records the duration of a stage that started at start
func (m *serverMetrics) since(stage string, start time.Time) {
	m.timers[stage].UpdateSince(start)
}

// writePrometheus writes the series of this server in Prometheus text format
func (m *serverMetrics) writePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}

// close stops the meter ticker of the registry
func (m *serverMetrics) close() {
	m.commandMeter.Stop()
	m.registry.UnregisterAll()
}

// --------------------------------------------------------------------------
// Stats (reported by the status server and at shutdown)
// --------------------------------------------------------------------------

// TimerStats summarizes one stage timer, durations in milliseconds
type TimerStats struct {
	Count  int64   `json:"count"`
	MeanMs float64 `json:"mean_ms"`
	P95Ms  float64 `json:"p95_ms"`
	MaxMs  float64 `json:"max_ms"`
}

// ImageStats summarizes the encoded image sizes
type ImageStats struct {
	Count       int64 `json:"count"`
	AverageSize int   `json:"average_size"`
	MedianSize  int   `json:"median_size"`
	P95Size     int   `json:"p95_size"`
}

// Stats is a snapshot of the server state
type Stats struct {
	Connected       bool                  `json:"connected"`
	Session         string                `json:"session,omitempty"`
	QueueLength     int                   `json:"queue_length"`
	Commands        uint64                `json:"commands"`
	Malformed       uint64                `json:"malformed"`
	Unanswered      uint64                `json:"unanswered"`
	Rejected        uint64                `json:"rejected"`
	WriteErrors     uint64                `json:"write_errors"`
	SerializeErrors uint64                `json:"serialize_errors"`
	CaptureErrors   uint64                `json:"capture_errors"`
	CommandRate1    float64               `json:"command_rate_1m"`
	Stages          map[string]TimerStats `json:"stages"`
	Images          ImageStats            `json:"images"`
}

func (m *serverMetrics) snapshot() Stats {
	stages := make(map[string]TimerStats, len(m.timers))
	for name, t := range m.timers {
		s := t.Snapshot()
		stages[name] = TimerStats{
			Count:  s.Count(),
			MeanMs: s.Mean() / float64(time.Millisecond),
			P95Ms:  s.Percentile(0.95) / float64(time.Millisecond),
			MaxMs:  float64(s.Max()) / float64(time.Millisecond),
		}
	}

	return Stats{
		Commands:        m.commands.Get(),
		Malformed:       m.malformed.Get(),
		Unanswered:      m.skipped.Get(),
		Rejected:        m.rejected.Get(),
		WriteErrors:     m.writeErrors.Get(),
		SerializeErrors: m.serializeErrors.Get(),
		CaptureErrors:   m.captureErrors.Get(),
		CommandRate1:    m.commandMeter.Snapshot().Rate1(),
		Stages:          stages,
		Images: ImageStats{
			Count:       m.imageSizes.GetCount(),
			AverageSize: m.imageSizes.AverageSize(),
			MedianSize:  m.imageSizes.GetPercentileEstimate(50),
			P95Size:     m.imageSizes.GetPercentileEstimate(95),
		},
	}
}
