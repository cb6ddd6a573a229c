package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/assockit/pkg/association"
	"github.com/coolbeans/assockit/pkg/assocparser"
	"github.com/coolbeans/assockit/pkg/compare"
	"github.com/coolbeans/assockit/pkg/curie"
	"github.com/coolbeans/assockit/pkg/report"
)

func sampleCollection() *assocparser.Collection {
	rep := report.New()
	for i := 0; i < 3; i++ {
		rep.IncrementLines()
	}
	rep.AddAssociation()
	rep.AddAssociation()
	rep.Error(report.RuleInvalidDate, "line", "2010-02-09", "bad date")
	rep.Warning(report.RuleInvalidElement, "line", "x", "dropped")
	rep.Warning(report.RuleInvalidElement, "line", "y", "dropped")

	return &assocparser.Collection{
		Declaration: assocparser.Declaration{Format: assocparser.FormatGPAD, Version: "1.2"},
		Report:      rep,
		Skipped:     1,
	}
}

func TestObserveCollection(t *testing.T) {
	m := New()
	m.ObserveCollection("mgi", sampleCollection(), 250*time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.LinesTotal.WithLabelValues("mgi", "gpad")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AssociationsTotal.WithLabelValues("mgi", "gpad")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkippedTotal.WithLabelValues("mgi", "gpad")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesTotal.WithLabelValues("mgi", "ERROR", report.RuleInvalidDate)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesTotal.WithLabelValues("mgi", "WARNING", report.RuleInvalidElement)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ParseDuration))
}

func TestObserveComparison(t *testing.T) {
	assoc := &association.GoAssociation{
		Subject: curie.MustParse("MGI:MGI:1"),
		Object:  curie.MustParse("GO:0003674"),
	}
	other := &association.GoAssociation{
		Subject: curie.MustParse("MGI:MGI:2"),
		Object:  curie.MustParse("GO:0003674"),
	}

	m := New()
	m.ObserveComparison(compare.Compare([]*association.GoAssociation{assoc, other}, []*association.GoAssociation{assoc}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComparisonsTotal.WithLabelValues("exact")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ComparisonsTotal.WithLabelValues("close")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComparisonsTotal.WithLabelValues("unmatched")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveCollection("mgi", sampleCollection(), time.Second)

	path := filepath.Join(t.TempDir(), "assockit.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `assockit_parse_lines_total{dataset="mgi",format="gpad"} 3`)
	assert.Contains(t, string(data), "# HELP assockit_report_messages_total")
}
