// Package metrics records per-run gauges and writes them in the Prometheus
// textfile format, for node_exporter's textfile collector or CI artifacts.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kingrea/dcs/internal/registry"
	"github.com/kingrea/dcs/internal/report"
)

// Recorder owns a private registry so runs never leak into the default one.
// A nil *Recorder ignores every observation.
type Recorder struct {
	registry *prometheus.Registry

	documents     prometheus.Gauge
	issues        *prometheus.GaugeVec
	impacted      *prometheus.GaugeVec
	stale         prometheus.Gauge
	unregistered  prometheus.Gauge
	lastRun       *prometheus.GaugeVec
	lastRunStatus *prometheus.GaugeVec
}

// New builds a recorder with every collector registered.
func New() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dcs_registry_documents",
			Help: "Number of documents in the registry",
		}),
		issues: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dcs_issues",
			Help: "Issues found by the last run of a command, by kind",
		}, []string{"command", "kind"}),
		impacted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dcs_impacted_documents",
			Help: "Documents transitively affected by a change to the given document",
		}, []string{"doc_id"}),
		stale: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dcs_stale_documents",
			Help: "Documents older than a document that affects them",
		}),
		unregistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dcs_unregistered_documents",
			Help: "Documents matched by the configured globs with no registry row",
		}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dcs_last_run_timestamp_seconds",
			Help: "Unix time of the last run of a command",
		}, []string{"command"}),
		lastRunStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dcs_last_run_success",
			Help: "1 when the last run of a command succeeded, else 0",
		}, []string{"command"}),
	}
	collectors := []prometheus.Collector{
		r.documents, r.issues, r.impacted, r.stale, r.unregistered, r.lastRun, r.lastRunStatus,
	}
	for _, c := range collectors {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}
	return r, nil
}

// ObserveRegistry records the registry size.
func (r *Recorder) ObserveRegistry(reg *registry.Registry) {
	if r == nil {
		return
	}
	r.documents.Set(float64(reg.Len()))
}

// ObserveReport records issue counts for command. Every known kind gets a
// sample so a fixed problem drops back to zero.
func (r *Recorder) ObserveReport(command string, rep report.Report) {
	if r == nil {
		return
	}
	counts := rep.CountByKind()
	for _, kind := range report.Kinds() {
		r.issues.WithLabelValues(command, string(kind)).Set(float64(counts[kind]))
	}
	r.stale.Set(float64(counts[report.KindStale]))
}

// ObserveStale records the number of stale documents.
func (r *Recorder) ObserveStale(n int) {
	if r == nil {
		return
	}
	r.stale.Set(float64(n))
}

// ObserveImpact records the size of a document's impact closure.
func (r *Recorder) ObserveImpact(docID string, affected int) {
	if r == nil {
		return
	}
	r.impacted.WithLabelValues(docID).Set(float64(affected))
}

// ObserveUnregistered records how many documents lack a registry row.
func (r *Recorder) ObserveUnregistered(n int) {
	if r == nil {
		return
	}
	r.unregistered.Set(float64(n))
}

// ObserveRun stamps the end of a command.
func (r *Recorder) ObserveRun(command string, ok bool, at time.Time) {
	if r == nil {
		return
	}
	r.lastRun.WithLabelValues(command).Set(float64(at.Unix()))
	status := 0.0
	if ok {
		status = 1
	}
	r.lastRunStatus.WithLabelValues(command).Set(status)
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteFile writes every sample to path in the textfile format. The write
// goes through a temporary file so collectors never read a partial file.
func (r *Recorder) WriteFile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
