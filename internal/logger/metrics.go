package logger

import (
	"sync"
	"time"
)

// Timing aggregates the durations recorded under one name.
type Timing struct {
	Count int           `json:"count"`
	Total time.Duration `json:"total_ns"`
	Min   time.Duration `json:"min_ns"`
	Max   time.Duration `json:"max_ns"`
}

// Average is Total over Count, zero when nothing was recorded.
func (t Timing) Average() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Count)
}

func (t *Timing) add(d time.Duration) {
	if t.Count == 0 || d < t.Min {
		t.Min = d
	}
	if d > t.Max {
		t.Max = d
	}
	t.Count++
	t.Total += d
}

// Snapshot is a copy of the metrics at one point in time.
type Snapshot struct {
	Counters map[string]int64   `json:"counters"`
	Gauges   map[string]float64 `json:"gauges"`
	Timings  map[string]Timing  `json:"timings"`
}

// Fields renders the snapshot for a log line, with durations as strings.
func (s Snapshot) Fields() Fields {
	timings := make(map[string]Fields, len(s.Timings))
	for name, t := range s.Timings {
		timings[name] = Fields{
			"count":   t.Count,
			"average": t.Average().String(),
			"min":     t.Min.String(),
			"max":     t.Max.String(),
		}
	}
	return Fields{
		"counters": s.Counters,
		"gauges":   s.Gauges,
		"timings":  timings,
	}
}

// Metrics holds counters, gauges and timings. It is safe for concurrent use.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string]*Timing
}

// NewMetrics creates an empty registry.
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string]*Timing),
	}
}

func (m *Metrics) IncrCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

func (m *Metrics) RecordTiming(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timings[name]
	if !ok {
		t = &Timing{}
		m.timings[name] = t
	}
	t.add(d)
}

// Snapshot copies the current values.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Counters: make(map[string]int64, len(m.counters)),
		Gauges:   make(map[string]float64, len(m.gauges)),
		Timings:  make(map[string]Timing, len(m.timings)),
	}
	for k, v := range m.counters {
		s.Counters[k] = v
	}
	for k, v := range m.gauges {
		s.Gauges[k] = v
	}
	for k, v := range m.timings {
		s.Timings[k] = *v
	}
	return s
}

var defaultMetrics = NewMetrics()

func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

func SetGauge(name string, value float64) {
	defaultMetrics.SetGauge(name, value)
}

func RecordTiming(name string, d time.Duration) {
	defaultMetrics.RecordTiming(name, d)
}

// GetMetricsSnapshot copies the process-wide metrics.
func GetMetricsSnapshot() Snapshot {
	return defaultMetrics.Snapshot()
}
