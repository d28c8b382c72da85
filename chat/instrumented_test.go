package chat

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"nutriroutine/catalog/catalogtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func counterValues(t *testing.T, data metricdata.Aggregation, key string) map[string]int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "unexpected aggregation %T", data)

	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		label := ""
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok {
			label = v.AsString()
		}
		out[label] += dp.Value
	}
	return out
}

func TestInstrumentedService(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	f := newFixture(t)
	svc, err := NewInstrumentedService(f.svc, provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	for _, msg := range []string{"generar rutina", "si", "cambiar rutina"} {
		_, err := svc.Handle(ctx, Request{UserID: catalogtest.UserID, Message: msg})
		require.NoError(t, err)
	}
	f.catalog.setFailRecord(errDown)
	_, err = svc.Handle(ctx, Request{UserID: catalogtest.UserID, Message: "finalizar"})
	require.NoError(t, err)

	metrics := collect(t, reader)

	assert.Equal(t, map[string]int64{"": 4}, counterValues(t, metrics["chat_turns_total"], ""))
	assert.Equal(t, map[string]int64{"": 1}, counterValues(t, metrics["chat_turn_failures_total"], ""))
	assert.Equal(t, map[string]int64{
		"start_routine":      1,
		"generate_routine":   1,
		"regenerate_routine": 1,
		"continue_flow":      1,
	}, counterValues(t, metrics["chat_routes_total"], "route"))
	assert.Equal(t, map[string]int64{"generated": 2}, counterValues(t, metrics["routine_generations_total"], "source"))

	gauge, ok := metrics["active_sessions"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(1), gauge.DataPoints[0].Value)

	hist, ok := metrics["chat_turn_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(4), hist.DataPoints[0].Count)
}
