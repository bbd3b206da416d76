package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Виды действий, которые считаются по целям.
const (
	KindCast  = "cast"
	KindReset = "reset"
	KindBite  = "bite"
	KindReact = "react"
)

// Metrics счётчики действий движка для Prometheus.
type Metrics struct {
	registry *prometheus.Registry

	actions  *prometheus.CounterVec
	reaction prometheus.Histogram
	stops    prometheus.Counter
	targets  prometheus.GaugeFunc
}

// New регистрирует метрики в registry. targets отдаёт текущее число отслеживаемых целей.
func New(registry *prometheus.Registry, targets func() int) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.actions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bitebot_actions_total",
		Help: "Number of engine actions by kind and target pid",
	}, []string{"kind", "pid"})
	m.reaction = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bitebot_reaction_duration_seconds",
		Help:    "Time from cast to reel-in",
		Buckets: prometheus.LinearBuckets(2, 2, 15), // 2s..30s
	})
	m.stops = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bitebot_engine_stops_total",
		Help: "Number of fatal engine stops",
	})
	m.targets = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "bitebot_targets",
		Help: "Number of tracked targets",
	}, func() float64 { return float64(targets()) })

	for _, c := range []prometheus.Collector{m.actions, m.reaction, m.stops, m.targets} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register bitebot metrics: %w", err)
		}
	}
	return m, nil
}

// RecordAction учитывает одно действие. Для подсечки d — время от заброса.
func (m *Metrics) RecordAction(kind string, pid uint32, d time.Duration) {
	m.actions.WithLabelValues(kind, strconv.FormatUint(uint64(pid), 10)).Inc()
	if kind == KindReact && d > 0 {
		m.reaction.Observe(d.Seconds())
	}
}

// RecordStop учитывает остановку цикла фатальной ошибкой.
func (m *Metrics) RecordStop() { m.stops.Inc() }

// Handler отдаёт метрики в формате экспозиции.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
