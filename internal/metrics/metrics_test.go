package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesPrivateRegistry(t *testing.T) {
	a := New()
	b := New()

	a.Records.WithLabelValues("inserted").Inc()
	a.Samples.WithLabelValues("up").Add(5)
	a.SensorsSeen.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Records.WithLabelValues("inserted")))
	assert.Equal(t, 5.0, testutil.ToFloat64(a.Samples.WithLabelValues("up")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Records.WithLabelValues("inserted")))

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "prtgx_records_total")
	assert.Contains(t, names, "prtgx_historic_samples_total")
	assert.Contains(t, names, "prtgx_sensors_processed_total")
}
