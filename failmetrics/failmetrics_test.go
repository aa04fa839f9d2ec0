package failmetrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/gracedec"
	"github.com/reoring/gracedec/failmetrics"
	"github.com/reoring/gracedec/introspect"
)

type Calibration struct {
	Scale float64 `json:"scale" default:"1"`
}

type Reading struct {
	Calibration
	Sensor string  `json:"sensor"`
	Values []int   `json:"values"`
	Unit   *string `json:"unit"`
}

func TestReporterCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	var forwarded int
	m := failmetrics.New(reg, failmetrics.WithNext(gracedec.ReporterFuncs{
		OnAbsorbed: func(gracedec.Event) { forwarded++ },
	}))

	r := gracedec.NewRegistry(introspect.New(), gracedec.WithReporter(m))
	require.NoError(t, gracedec.Register[Reading](r))
	require.NoError(t, r.Build())

	_, err := gracedec.Unmarshal[Reading](r, []byte(`{"sensor": "t1", "values": [1, "x", 3], "unit": 5, "scale": "big"}`))
	require.NoError(t, err)
	_, err = gracedec.Unmarshal[Reading](r, []byte(`{"values": []}`))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AbsorbedTotal.WithLabelValues("Reading", "element", "malformed", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AbsorbedTotal.WithLabelValues("Reading", "lenient", "malformed", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AbsorbedTotal.WithLabelValues("Reading", "default_on_failure", "malformed", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EscalatedTotal.WithLabelValues("Reading", "absent")))
	assert.Equal(t, 3, forwarded)

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := failmetrics.New(reg, failmetrics.WithNamespace("orders"))
	m.Escalated(&gracedec.GracefulFailure{Model: "Order", Reason: gracedec.ReasonShape})

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "orders_escalated_failures_total", families[0].GetName())
}
