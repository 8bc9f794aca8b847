// Package metrics collects generation metrics with Prometheus collectors.
package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "stageprompt"

// Collector records attempts, provider errors and stage durations. It
// satisfies llm.Recorder.
type Collector struct {
	registry       *prometheus.Registry
	attempts       *prometheus.CounterVec
	providerErrors *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
}

// New creates a Collector on its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_attempts_total",
			Help:      "Generation attempts by stage and outcome.",
		}, []string{"stage", "outcome"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider failures by adapter and kind.",
		}, []string{"provider", "kind"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time to produce a stage, retries included.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}, []string{"stage", "outcome"}),
	}
	c.registry.MustRegister(c.attempts, c.providerErrors, c.stageDuration)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ObserveAttempt(stage int, outcome string) {
	c.attempts.WithLabelValues(strconv.Itoa(stage), outcome).Inc()
}

func (c *Collector) ObserveProviderError(provider, kind string) {
	c.providerErrors.WithLabelValues(provider, kind).Inc()
}

func (c *Collector) ObserveStage(stage int, outcome string, d time.Duration) {
	c.stageDuration.WithLabelValues(strconv.Itoa(stage), outcome).Observe(d.Seconds())
}

// Summary renders every non-empty series as "name{labels} value" lines,
// sorted. Histograms report their sample count and sum.
func (c *Collector) Summary() (string, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := labelString(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), labels, m.GetCounter().GetValue()))
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s%s count=%d sum=%.2fs",
					mf.GetName(), labels, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

func labelString(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s=%q", p.GetName(), p.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
