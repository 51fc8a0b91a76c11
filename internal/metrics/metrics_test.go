package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ActiveSessions.Inc()
	m.MessagesReceived.WithLabelValues("ping").Inc()
	m.MessagesReceived.WithLabelValues("ping").Inc()
	m.SendQueueDrops.Inc()
	m.ObserveTick(5 * time.Millisecond)
	m.ObservePhysics("check_collision", time.Microsecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesReceived.WithLabelValues("ping")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SendQueueDrops))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}

func TestNopMetricsAreUsable(t *testing.T) {
	m := NewNop()

	assert.NotPanics(t, func() {
		m.ActiveGames.Set(3)
		m.SpellsCast.WithLabelValues("earthquake").Inc()
		m.ObserveTick(time.Millisecond)
	})
}
