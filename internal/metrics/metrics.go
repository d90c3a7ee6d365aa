// Package metrics counts what each pass did. Runs are short-lived batch
// jobs, so the registry is written to a node_exporter textfile at the end
// of a run instead of being scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for one run. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RowsTotal      *prometheus.CounterVec
	SummaryRecords *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	CleanRows      prometheus.Gauge
	LastSuccess    *prometheus.GaugeVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "labscrape_detail_rows_total",
			Help: "Detail rows visited, by final state",
		}, []string{"state"}),
		SummaryRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "labscrape_summary_records_total",
			Help: "Catalog records seen by the summary pass",
		}, []string{"unit", "outcome"}), // fresh, inserted, existing, dropped, malformed
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "labscrape_fetch_duration_seconds",
			Help:    "Page fetch latency",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"fetcher"}),
		CleanRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "labscrape_clean_rows",
			Help: "Rows produced by the last clean pass",
		}),
		LastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "labscrape_last_success_timestamp_seconds",
			Help: "Unix time a pass last completed",
		}, []string{"pass"}),
	}
}

// IncRow counts a detail row reaching state
func (m *Metrics) IncRow(state string) {
	if m == nil {
		return
	}
	m.RowsTotal.WithLabelValues(state).Inc()
}

// AddSummary counts n summary records with the given outcome
func (m *Metrics) AddSummary(unit, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SummaryRecords.WithLabelValues(unit, outcome).Add(float64(n))
}

// ObserveFetch records how long a fetch took
func (m *Metrics) ObserveFetch(fetcher string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(fetcher).Observe(d.Seconds())
}

func (m *Metrics) SetCleanRows(n int) {
	if m == nil {
		return
	}
	m.CleanRows.Set(float64(n))
}

// PassCompleted stamps the completion time of pass
func (m *Metrics) PassCompleted(pass string) {
	if m == nil {
		return
	}
	m.LastSuccess.WithLabelValues(pass).SetToCurrentTime()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every collector in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
