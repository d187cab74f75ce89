// Package testutils provides shared fixtures for package tests: a
// recording metrics collector, a canned three-round contest and a
// deterministic score generator.
package testutils

import (
	"strings"
	"sync"
	"time"

	"github.com/ahrav/go-joute/internal/ports"
)

var _ ports.MetricsCollector = (*MetricsRecorder)(nil)

// MetricsRecorder implements ports.MetricsCollector in memory. Series are
// keyed as "metric/round/outcome" with absent labels left empty, so a
// bonus grant on round heat reads back as "bonus_granted_total/heat/".
type MetricsRecorder struct {
	mu         sync.Mutex
	counters   map[string]float64
	gauges     map[string]float64
	latencies  map[string]int
	histograms map[string][]float64
}

// NewMetricsRecorder returns an empty recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		latencies:  make(map[string]int),
		histograms: make(map[string][]float64),
	}
}

// SeriesKey builds the key under which a sample is recorded.
func SeriesKey(metric string, labels map[string]string) string {
	return strings.Join([]string{metric, labels["round"], labels["outcome"]}, "/")
}

// RecordLatency counts observations per operation series, so one
// ranking of heat reads back as Latencies("compute_ranking/heat/").
func (m *MetricsRecorder) RecordLatency(operation string, _ time.Duration, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies[SeriesKey(operation, labels)]++
}

// RecordCounter implements ports.MetricsCollector.
func (m *MetricsRecorder) RecordCounter(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[SeriesKey(metric, labels)] += value
}

// RecordGauge implements ports.MetricsCollector.
func (m *MetricsRecorder) RecordGauge(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[SeriesKey(metric, labels)] = value
}

// RecordHistogram implements ports.MetricsCollector.
func (m *MetricsRecorder) RecordHistogram(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := SeriesKey(metric, labels)
	m.histograms[key] = append(m.histograms[key], value)
}

// Counter returns the accumulated value of a counter series.
func (m *MetricsRecorder) Counter(key string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

// Gauge returns the last value of a gauge series.
func (m *MetricsRecorder) Gauge(key string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[key]
}

// Latencies returns how many latencies were recorded for a series key.
func (m *MetricsRecorder) Latencies(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latencies[key]
}

// Observations returns a copy of a histogram series.
func (m *MetricsRecorder) Observations(key string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.histograms[key]...)
}
