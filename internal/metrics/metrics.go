// Package metrics records audit counters in Prometheus form.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements scan.Observer and exposes loader counts.
type Metrics struct {
	registry *prometheus.Registry

	filesScanned   prometheus.Counter
	urlsSeen       prometheus.Counter
	urlsUpgradable prometheus.Counter
	rulesetsLoaded prometheus.Gauge
	rulesetsFailed prometheus.Gauge
	lookupDuration prometheus.Histogram
}

// New registers the audit metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "httpsaudit_files_scanned_total",
			Help: "Total files scanned",
		}),
		urlsSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "httpsaudit_urls_seen_total",
			Help: "Total plaintext URLs checked against the rulesets",
		}),
		urlsUpgradable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "httpsaudit_urls_upgradable_total",
			Help: "Total plaintext URLs that a ruleset upgrades to https",
		}),
		rulesetsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "httpsaudit_rulesets_loaded",
			Help: "Rulesets loaded for this run",
		}),
		rulesetsFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "httpsaudit_rulesets_skipped",
			Help: "Ruleset files skipped because they failed to parse",
		}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "httpsaudit_lookup_duration_seconds",
			Help:    "Time spent finding and applying rulesets for one URL",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
	}
	m.registry.MustRegister(
		m.filesScanned,
		m.urlsSeen,
		m.urlsUpgradable,
		m.rulesetsLoaded,
		m.rulesetsFailed,
		m.lookupDuration,
	)
	return m
}

// Registry returns the registry holding the audit metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RulesetsLoaded records the outcome of loading the rules directory.
func (m *Metrics) RulesetsLoaded(loaded, skipped int) {
	m.rulesetsLoaded.Set(float64(loaded))
	m.rulesetsFailed.Set(float64(skipped))
}

func (m *Metrics) FileScanned() {
	m.filesScanned.Inc()
}

func (m *Metrics) URLChecked(upgraded bool, dur time.Duration) {
	m.urlsSeen.Inc()
	if upgraded {
		m.urlsUpgradable.Inc()
	}
	m.lookupDuration.Observe(dur.Seconds())
}

// WriteTextfile writes the current values in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
