package statsd

import (
	"maps"
	"sync"
	"time"
)

// Metric is one recorded emission.
type Metric struct {
	Kind  string // "c" or "ms"
	Name  string
	Value float64
	Tags  map[string]string
}

// Recorder is an in-memory Sink for tests.
type Recorder struct {
	mu      sync.Mutex
	metrics []Metric
}

var _ Sink = (*Recorder)(nil)

// Count implements Sink.
func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(Metric{Kind: "c", Name: name, Value: float64(value), Tags: maps.Clone(tags)})
}

// Timing implements Sink.
func (r *Recorder) Timing(name string, d time.Duration, tags map[string]string) {
	r.add(Metric{Kind: "ms", Name: name, Value: float64(d) / float64(time.Millisecond), Tags: maps.Clone(tags)})
}

func (r *Recorder) add(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, m)
}

// Metrics returns a copy of everything recorded so far.
func (r *Recorder) Metrics() []Metric {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Metric(nil), r.metrics...)
}

// Named returns the recorded metrics with the given name and kind.
func (r *Recorder) Named(kind, name string) []Metric {
	var out []Metric
	for _, m := range r.Metrics() {
		if m.Kind == kind && m.Name == name {
			out = append(out, m)
		}
	}
	return out
}
