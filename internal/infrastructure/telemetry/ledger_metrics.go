package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hms/backend/internal/domain/inventory"
)

// LedgerMetrics exposes stock ledger activity to Prometheus
type LedgerMetrics struct {
	registry *prometheus.Registry

	UnitsMoved          *prometheus.CounterVec
	Movements           *prometheus.CounterVec
	Rejections          *prometheus.CounterVec
	LowStockCrossings   *prometheus.CounterVec
	LowStockItems       *prometheus.GaugeVec
	TransactionDuration *prometheus.HistogramVec
}

// LedgerMetricsConfig holds metrics configuration
type LedgerMetricsConfig struct {
	Namespace string
	Subsystem string
}

// DefaultLedgerMetricsConfig returns the default metric names
func DefaultLedgerMetricsConfig() LedgerMetricsConfig {
	return LedgerMetricsConfig{
		Namespace: "hms",
		Subsystem: "stock",
	}
}

// NewLedgerMetrics creates the collectors on a private registry together with
// the Go runtime and process collectors
func NewLedgerMetrics(cfg LedgerMetricsConfig) *LedgerMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &LedgerMetrics{registry: registry}

	m.UnitsMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "units_moved_total",
			Help:      "Consumable units moved through the stock ledger",
		},
		[]string{"department", "reason", "direction"},
	)
	m.Movements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ledger_entries_total",
			Help:      "Ledger entries appended",
		},
		[]string{"department", "reason", "direction"},
	)
	m.Rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "rejections_total",
			Help:      "Stock operations refused by a business rule",
		},
		[]string{"operation", "cause"},
	)
	m.LowStockCrossings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "low_stock_crossings_total",
			Help:      "Items that fell below their reorder level",
		},
		[]string{"department"},
	)
	m.LowStockItems = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "low_stock_items",
			Help:      "Items at or under their reorder level at the last sweep",
		},
		[]string{"department"},
	)
	m.TransactionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "transaction_duration_seconds",
			Help:      "Duration of stock transactions including lock waits",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation", "status"},
	)

	registry.MustRegister(
		m.UnitsMoved,
		m.Movements,
		m.Rejections,
		m.LowStockCrossings,
		m.LowStockItems,
		m.TransactionDuration,
	)
	return m
}

// RecordMovement counts one ledger entry and its units
func (m *LedgerMetrics) RecordMovement(department inventory.Department, reason inventory.MovementReason, direction inventory.Direction, units int64) {
	labels := []string{string(department), string(reason), string(direction)}
	m.Movements.WithLabelValues(labels...).Inc()
	m.UnitsMoved.WithLabelValues(labels...).Add(float64(units))
}

// RecordRejection counts an operation refused by a business rule
func (m *LedgerMetrics) RecordRejection(operation, cause string) {
	m.Rejections.WithLabelValues(operation, cause).Inc()
}

// RecordLowStockCrossed counts an item falling under its reorder level
func (m *LedgerMetrics) RecordLowStockCrossed(department inventory.Department) {
	m.LowStockCrossings.WithLabelValues(string(department)).Inc()
}

// SetLowStockItems records how many items of a department are low on stock
func (m *LedgerMetrics) SetLowStockItems(department inventory.Department, count int) {
	m.LowStockItems.WithLabelValues(string(department)).Set(float64(count))
}

// ObserveTransaction records the duration of a stock transaction
func (m *LedgerMetrics) ObserveTransaction(operation string, d time.Duration, err error) {
	status := "committed"
	if err != nil {
		status = "rolled_back"
	}
	m.TransactionDuration.WithLabelValues(operation, status).Observe(d.Seconds())
}

// Registry returns the registry holding the collectors
func (m *LedgerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the metrics
func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
