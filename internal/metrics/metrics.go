package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	processRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mvbridge",
		Name:      "process_running",
		Help:      "Whether the supervised process is currently running (1=running, 0=idle).",
	})

	processStarts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mvbridge",
		Name:      "process_starts_total",
		Help:      "Total number of successful supervised process launches, by transport mode.",
	}, []string{"mode"})

	linesPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mvbridge",
		Name:      "lines_published_total",
		Help:      "Total number of output lines fanned out to subscribers.",
	})

	subscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mvbridge",
		Name:      "subscribers",
		Help:      "Number of currently registered stream subscribers.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mvbridge",
		Name:      "build_info",
		Help:      "Build metadata for the running mvbridge binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(processRunning, processStarts, linesPublished, subscribers, buildInfo)
}

// Registry returns the Prometheus registry containing all mvbridge metrics.
func Registry() *prometheus.Registry {
	return registry
}

// SetProcessRunning records whether a supervised process is live.
func SetProcessRunning(running bool) {
	value := 0.0
	if running {
		value = 1.0
	}
	processRunning.Set(value)
}

// IncProcessStarts counts a successful launch with the chosen transport mode.
func IncProcessStarts(mode string) {
	if mode == "" {
		mode = "unknown"
	}
	processStarts.WithLabelValues(mode).Inc()
}

// IncLinesPublished counts one fan-out pass over the subscriber set.
func IncLinesPublished() {
	linesPublished.Inc()
}

// SetSubscribers records the current subscriber count.
func SetSubscribers(n int) {
	if n < 0 {
		n = 0
	}
	subscribers.Set(float64(n))
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
