package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "topple"

// Metrics holds the server's Prometheus instruments. Counters with a
// "type" label are keyed by wire message type; physics durations are
// keyed by boundary operation.
type Metrics struct {
	ActiveSessions    prometheus.Gauge
	ActiveGames       prometheus.Gauge
	ActiveConnections prometheus.Gauge

	MessagesReceived *prometheus.CounterVec
	MessagesSent     *prometheus.CounterVec
	SendQueueDrops   prometheus.Counter

	TickDuration    prometheus.Histogram
	PhysicsDuration *prometheus.HistogramVec

	SpellsCast  *prometheus.CounterVec
	GamesOpened prometheus.Counter
	GamesWon    *prometheus.CounterVec
}

// New creates the instruments and registers them with reg. A nil reg
// leaves them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live sessions",
		}),
		ActiveGames: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_games",
			Help:      "Number of games in any state",
		}),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of open WebSocket connections",
		}),
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Client messages received by type",
		}, []string{"type"}),
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Server messages sent by type",
		}, []string{"type"}),
		SendQueueDrops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_queue_drops_total",
			Help:      "Messages dropped because a connection's send queue was full",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Game tick processing duration",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .016, .05, .1},
		}),
		PhysicsDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "physics_call_duration_seconds",
			Help:      "Physics boundary call duration by operation",
			Buckets:   []float64{.00001, .0001, .001, .01, .1},
		}, []string{"op"}),
		SpellsCast: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spells_cast_total",
			Help:      "Spells cast by spell id",
		}, []string{"spell"}),
		GamesOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_opened_total",
			Help:      "Games created since start",
		}),
		GamesWon: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_won_total",
			Help:      "Finished games by game type",
		}, []string{"game_type"}),
	}
}

// NewNop returns unregistered instruments for tests
func NewNop() *Metrics {
	return New(nil)
}

// ObserveTick records one game tick's duration
func (m *Metrics) ObserveTick(d time.Duration) {
	m.TickDuration.Observe(d.Seconds())
}

// ObservePhysics records one boundary call's duration
func (m *Metrics) ObservePhysics(op string, d time.Duration) {
	m.PhysicsDuration.WithLabelValues(op).Observe(d.Seconds())
}
