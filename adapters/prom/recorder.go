// Package prom records core metrics in Prometheus. Each metric name becomes
// a vector whose labels are the sorted tag keys seen on first use.
package prom

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-botbase/core"
	"github.com/prometheus/client_golang/prometheus"
)

type Option func(*Recorder)

func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(r *Recorder) {
		if registerer != nil {
			r.registerer = registerer
		}
	}
}

// WithNamespace prefixes every metric name, e.g. "botbase".
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		r.namespace = sanitizeName(namespace)
	}
}

func WithBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = append([]float64(nil), buckets...)
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

type Recorder struct {
	registerer prometheus.Registerer
	namespace  string
	buckets    []float64
	logger     core.Logger

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// DefaultDurationBuckets fit the millisecond histograms emitted by the
// transport and store packages.
var DefaultDurationBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

func New(opts ...Option) *Recorder {
	r := &Recorder{
		registerer: prometheus.DefaultRegisterer,
		buckets:    DefaultDurationBuckets,
		counters:   map[string]*prometheus.CounterVec{},
		histograms: map[string]*prometheus.HistogramVec{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = core.ResolveLogger("prom", nil, r.logger)
	return r
}

func (r *Recorder) IncCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value < 0 {
		return
	}
	labels, values := splitTags(tags)
	vec := r.counterVec(ctx, name, labels)
	if vec == nil {
		return
	}
	vec.WithLabelValues(values...).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	labels, values := splitTags(tags)
	vec := r.histogramVec(ctx, name, labels)
	if vec == nil {
		return
	}
	vec.WithLabelValues(values...).Observe(value)
}

func (r *Recorder) counterVec(ctx context.Context, name string, labels []string) *prometheus.CounterVec {
	metricName := r.metricName(name)
	if metricName == "" {
		return nil
	}
	key := vectorKey(metricName, labels)

	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok := r.counters[key]; ok {
		return vec
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricName,
		Help: "Counter recorded for " + strings.TrimSpace(name) + ".",
	}, labels)
	if err := r.registerer.Register(vec); err != nil {
		var registered prometheus.AlreadyRegisteredError
		if !errors.As(err, &registered) {
			r.registrationFailed(ctx, metricName, err)
			return nil
		}
		existing, ok := registered.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			r.registrationFailed(ctx, metricName, err)
			return nil
		}
		vec = existing
	}
	r.counters[key] = vec
	return vec
}

func (r *Recorder) histogramVec(ctx context.Context, name string, labels []string) *prometheus.HistogramVec {
	metricName := r.metricName(name)
	if metricName == "" {
		return nil
	}
	key := vectorKey(metricName, labels)

	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok := r.histograms[key]; ok {
		return vec
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricName,
		Help:    "Histogram recorded for " + strings.TrimSpace(name) + ".",
		Buckets: r.buckets,
	}, labels)
	if err := r.registerer.Register(vec); err != nil {
		var registered prometheus.AlreadyRegisteredError
		if !errors.As(err, &registered) {
			r.registrationFailed(ctx, metricName, err)
			return nil
		}
		existing, ok := registered.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			r.registrationFailed(ctx, metricName, err)
			return nil
		}
		vec = existing
	}
	r.histograms[key] = vec
	return vec
}

func (r *Recorder) registrationFailed(ctx context.Context, metricName string, err error) {
	core.LogWarn(ctx, r.logger, "prometheus metric registration failed", map[string]any{
		"metric": metricName,
		"error":  err.Error(),
	})
}

func (r *Recorder) metricName(name string) string {
	name = sanitizeName(name)
	if name == "" {
		return ""
	}
	if r.namespace != "" {
		return r.namespace + "_" + name
	}
	return name
}

func splitTags(tags map[string]string) ([]string, []string) {
	byLabel := make(map[string]string, len(tags))
	for key, value := range tags {
		label := sanitizeName(key)
		if label == "" || strings.HasPrefix(label, "__") {
			continue
		}
		byLabel[label] = value
	}
	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	values := make([]string, len(labels))
	for index, label := range labels {
		values[index] = byLabel[label]
	}
	return labels, values
}

func vectorKey(name string, labels []string) string {
	return name + "{" + strings.Join(labels, ",") + "}"
}

// sanitizeName maps any rune outside [a-zA-Z0-9_] to '_' and prefixes names
// starting with a digit.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	var b strings.Builder
	for index, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if index == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

var _ core.MetricsRecorder = (*Recorder)(nil)
