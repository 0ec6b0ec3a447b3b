package session

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/observe"
	"github.com/ayusman/mudra/internal/timeutil"
)

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(DefaultConfig(), nil, WithClock(timeutil.NewMockClock(epoch)), WithLogger(nullLogger()))
	require.NoError(t, err)

	a := m.Create(ctx)
	b := m.Create(ctx)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, m.Len())

	got, err := m.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	snaps := m.List()
	require.Len(t, snaps, 2)
	assert.Less(t, snaps[0].ID, snaps[1].ID)

	require.NoError(t, m.Remove(ctx, a.ID()))
	_, err = m.Get(a.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Remove(ctx, a.ID()), ErrNotFound)
	assert.Equal(t, 1, m.Len())
}

func TestManagerRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConfidenceFloor = 2
	_, err := NewManager(cfg, nil)
	assert.Error(t, err)
}

func TestManagerRecordsMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })
	metrics, err := observe.NewMetrics(mp)
	require.NoError(t, err)

	clock := timeutil.NewMockClock(epoch)
	m, err := NewManager(DefaultConfig(), metrics, WithClock(clock), WithLogger(nullLogger()))
	require.NoError(t, err)

	s := m.Create(ctx)
	m.Create(ctx)
	s.SetModelReady(true)
	require.NoError(t, s.Start())
	feed(s, clock, detector.OpenPalmLandmarks(), 15, 100*time.Millisecond)
	s.Observe(ctx, nil)
	_, err = s.Finalize(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Remove(ctx, s.ID()))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	values := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if sum, ok := met.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					values[met.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(16), values["mudra.frames"])
	assert.Equal(t, int64(1), values["mudra.classifications"])
	assert.Equal(t, int64(1), values["mudra.sessions.finalized"])
	assert.Equal(t, int64(1), values["mudra.sessions.active"])
}

func TestManagerSessionsUseManagerLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	m, err := NewManager(DefaultConfig(), nil, WithClock(timeutil.NewMockClock(epoch)), WithLogger(logger))
	require.NoError(t, err)

	s := m.Create(context.Background())
	s.SetModelReady(true)
	require.NoError(t, s.Start())
	_, err = s.Finalize(context.Background())
	require.NoError(t, err)

	var finalized *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "session finalized" {
			finalized = e
		}
	}
	require.NotNil(t, finalized, "finalize logged through the manager's logger")
	assert.Equal(t, s.ID(), finalized.Data["session"])
}

func nullLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}
