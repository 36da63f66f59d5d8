// Package metrics records audit outcomes as Prometheus metrics. A run writes
// them once to a node_exporter textfile; there is no scrape endpoint.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
)

const namespace = "snapreaper"

// Account audit outcomes used as the result label.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Collector owns a private registry and the audit metrics registered on it.
// It is safe for concurrent use by account workers.
type Collector struct {
	registry *prometheus.Registry

	verdicts  *prometheus.CounterVec
	accounts  *prometheus.CounterVec
	reclaimed *prometheus.CounterVec
	lastRun   prometheus.Gauge
}

// NewCollector creates a Collector. If registry is nil a fresh one is used.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_verdicts_total",
			Help:      "Snapshots evaluated, by account, final verdict and reason.",
		}, []string{"account", "verdict", "reason"}),
		accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_audits_total",
			Help:      "Account passes completed, by result.",
		}, []string{"result"}),
		reclaimed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaimed_gigabytes_total",
			Help:      "Provisioned size of snapshots actually deleted, in GiB.",
		}, []string{"account"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last audit run finished.",
		}),
	}

	registry.MustRegister(c.verdicts, c.accounts, c.reclaimed, c.lastRun)
	return c
}

// Registry returns the registry holding the audit metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveVerdict counts one final verdict for accountID.
func (c *Collector) ObserveVerdict(accountID string, v models.Verdict) {
	c.verdicts.WithLabelValues(accountID, string(v.Kind), verdictReason(v)).Inc()
	if v.Committed {
		c.reclaimed.WithLabelValues(accountID).Add(float64(v.SizeGB))
	}
}

// ObserveAccount counts one finished account pass.
func (c *Collector) ObserveAccount(res models.AccountResult) {
	if res.OK() {
		c.accounts.WithLabelValues(ResultOK).Inc()
		return
	}
	c.accounts.WithLabelValues(ResultFailed).Inc()
}

// ObserveRun stamps the completion time of a run.
func (c *Collector) ObserveRun(finished time.Time) {
	c.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format.
// The write goes through a temporary file and a rename.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

// verdictReason keeps label cardinality bounded: skip-error reasons embed
// free-form API messages, so they collapse to the verdict kind.
func verdictReason(v models.Verdict) string {
	if v.Kind == models.VerdictSkipError {
		return string(models.VerdictSkipError)
	}
	return v.Reason
}
