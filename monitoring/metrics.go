package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total ledger operations by result",
		},
		[]string{"operation", "result"},
	)

	activeEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_active_events",
			Help: "Current number of active events",
		},
	)

	totalEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_events_total",
			Help: "Total events ever created",
		},
	)

	ticketsMinted = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_tickets_minted_total",
			Help: "Total tickets ever minted",
		},
	)

	collectedBalance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_collected_balance",
			Help: "Payment balance retained by the ledger",
		},
	)

	purchaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_purchase_duration_seconds",
			Help:    "Duration of ticket purchases",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"event_id"},
	)
)

// LedgerSnapshot carries the gauge values scraped from the ledger.
type LedgerSnapshot struct {
	TotalEvents  int
	ActiveEvents int
	TotalTickets int
	Collected    float64
}

// Monitor periodically refreshes the ledger gauges and exposes the
// operation trackers the ledger calls on every commit or rejection.
type Monitor struct {
	snapshot func() LedgerSnapshot
}

func NewMonitor(snapshot func() LedgerSnapshot) *Monitor {
	monitor := &Monitor{snapshot: snapshot}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		snap := m.snapshot()
		totalEvents.Set(float64(snap.TotalEvents))
		activeEvents.Set(float64(snap.ActiveEvents))
		ticketsMinted.Set(float64(snap.TotalTickets))
		collectedBalance.Set(snap.Collected)
	}
}

// TrackLedgerOperation records a ledger operation outcome.
func (m *Monitor) TrackLedgerOperation(operation, result string) {
	ledgerOperations.WithLabelValues(operation, result).Inc()
}

// TrackPurchaseDuration records how long a buy took end to end.
func (m *Monitor) TrackPurchaseDuration(eventID uint64, duration time.Duration) {
	purchaseDuration.WithLabelValues(strconv.FormatUint(eventID, 10)).Observe(duration.Seconds())
}
