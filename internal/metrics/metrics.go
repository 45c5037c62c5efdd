package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	mu         sync.RWMutex
	reg        *prometheus.Registry
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := &Registry{
		reg:        prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.RegisterCounter("backoffice_job_runs_total", "Total background job runs by job and status.", "job", "status")
	r.RegisterHistogram("backoffice_job_duration_ms", "Background job duration in milliseconds by job.", []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}, "job")
	r.RegisterCounter("backoffice_session_joins_total", "Session join attempts by result.", "result")
	r.RegisterCounter("backoffice_session_heartbeats_total", "Session heartbeats by whether a row was touched.", "result")
	r.RegisterCounter("backoffice_sweep_runs_total", "Timeout sweep passes by trigger and status.", "trigger", "status")
	r.RegisterCounter("backoffice_sweep_sessions_ended_total", "Sessions ended by the timeout sweep.", "trigger")
	r.RegisterHistogram("backoffice_sweep_duration_ms", "Timeout sweep duration in milliseconds by trigger.", []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}, "trigger")
}

// RegisterCounter is idempotent per name; the first registration fixes the label set.
func (r *Registry) RegisterCounter(name, help string, labels ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.counters[name]; ok {
		return
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	if err := r.reg.Register(vec); err != nil {
		return
	}
	r.counters[name] = vec
}

func (r *Registry) RegisterHistogram(name, help string, buckets []float64, labels ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.histograms[name]; ok {
		return
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, labels)
	if err := r.reg.Register(vec); err != nil {
		return
	}
	r.histograms[name] = vec
}

// IncCounter drops samples for unknown names or mismatched label sets.
func (r *Registry) IncCounter(name string, labels map[string]string) {
	r.AddCounter(name, 1, labels)
}

func (r *Registry) AddCounter(name string, v float64, labels map[string]string) {
	r.mu.RLock()
	vec, ok := r.counters[name]
	r.mu.RUnlock()
	if !ok || v < 0 {
		return
	}
	c, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}
	c.Add(v)
}

func (r *Registry) ObserveHistogram(name string, value float64, labels map[string]string) {
	r.mu.RLock()
	vec, ok := r.histograms[name]
	r.mu.RUnlock()
	if !ok {
		return
	}
	h, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}
	h.Observe(value)
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

var (
	defaultMu       sync.Mutex
	defaultRegistry = NewRegistry()
)

func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultRegistry
}

func ResetDefaultForTest() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRegistry = NewRegistry()
}
