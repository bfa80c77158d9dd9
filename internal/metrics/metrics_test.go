package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/dcs/internal/registry"
	"github.com/kingrea/dcs/internal/report"
)

func TestRecorder_Observations(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	reg := registry.New()
	reg.Add(registry.Record{ID: "A"})
	reg.Add(registry.Record{ID: "B"})
	r.ObserveRegistry(reg)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.documents))

	var rep report.Report
	rep.Add(report.KindStale, "B", "Document B needs to be updated")
	rep.Add(report.KindCycle, "A", "Circular dependency detected: A -> B -> A")
	rep.Add(report.KindCycle, "B", "Circular dependency detected: B -> A -> B")
	r.ObserveReport("validate", rep)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.issues.WithLabelValues("validate", string(report.KindCycle))))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.issues.WithLabelValues("validate", string(report.KindMissingFile))))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stale))

	r.ObserveImpact("A", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(r.impacted.WithLabelValues("A")))

	r.ObserveRun("validate", false, time.Unix(1700000000, 0))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.lastRun.WithLabelValues("validate")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.lastRunStatus.WithLabelValues("validate")))
}

func TestRecorder_WriteFile(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	r.ObserveUnregistered(4)
	r.ObserveRun("check", true, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "dcs.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dcs_unregistered_documents 4")
	assert.Contains(t, string(data), `dcs_last_run_success{command="check"} 1`)
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var r *Recorder
	r.ObserveRegistry(registry.New())
	r.ObserveImpact("A", 1)
	assert.NoError(t, r.WriteFile("/nonexistent/dir/out.prom"))
}
