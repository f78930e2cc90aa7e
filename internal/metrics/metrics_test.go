package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.RecordFetch("commodore", 12)
	m.RecordFetch("commodore", 3)
	m.RecordSourceError("rio", "rate_limit")
	m.RecordSourceError("orpheum", "")
	m.RecordRejections(map[string]int{"junk": 4, "no_date": 2})
	m.RecordMerges(1, 2)
	m.RecordOutput(7)
	m.RecordSave(5, 2)
	m.ObserveRun(3*time.Second, time.Unix(1767225600, 0))

	path := filepath.Join(t.TempDir(), "discovr.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	for _, line := range []string{
		`discovr_records_fetched_total{source="commodore"} 15`,
		`discovr_source_errors_total{kind="rate_limit",source="rio"} 1`,
		`discovr_source_errors_total{kind="unknown",source="orpheum"} 1`,
		`discovr_records_rejected_total{reason="junk"} 4`,
		`discovr_records_rejected_total{reason="no_date"} 2`,
		`discovr_merges_total{pass="exact"} 1`,
		`discovr_merges_total{pass="fuzzy"} 2`,
		`discovr_events_output 7`,
		`discovr_events_stored_total{result="inserted"} 5`,
		`discovr_events_stored_total{result="skipped"} 2`,
		`discovr_last_run_timestamp_seconds 1.7672256e+09`,
		`discovr_run_duration_seconds_count 1`,
	} {
		assert.Contains(t, out, line)
	}
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordFetch("x", 1)
		m.RecordSourceError("x", "network")
		m.RecordRejections(map[string]int{"junk": 1})
		m.RecordMerges(1, 1)
		m.RecordOutput(1)
		m.RecordSave(1, 1)
		m.ObserveRun(time.Second, time.Now())
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "none.prom")))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordOutput(3)

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "discovr_events_output" {
			assert.Equal(t, 0.0, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
}
