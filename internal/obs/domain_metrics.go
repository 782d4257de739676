package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts pricing quote outcomes.
	QuoteTotal *prometheus.CounterVec
	// ReservationsTotal counts reservation operations by outcome.
	ReservationsTotal *prometheus.CounterVec
	// ReservationVolumeLitres records reserved volume distribution per fuel type.
	ReservationVolumeLitres *prometheus.HistogramVec
	// StockLevelLitres tracks current physical stock per depot and fuel type.
	StockLevelLitres *prometheus.GaugeVec
	// StockAvailableLitres tracks unreserved stock per depot and fuel type.
	StockAvailableLitres *prometheus.GaugeVec
	// ReservationsExpiredTotal counts pending reservations reclaimed by the sweeper.
	ReservationsExpiredTotal prometheus.Counter
	// LedgerConflictsTotal counts optimistic writes that exhausted the retry budget.
	LedgerConflictsTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_total",
			Help:      "Count of pricing quote outcomes.",
		}, []string{"fuel_type", "result"})
		ReservationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Count of stock reservation operations by outcome.",
		}, []string{"op", "result"})
		ReservationVolumeLitres = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reservation_volume_litres",
			Help:      "Distribution of reserved volumes in litres.",
			Buckets:   []float64{100, 500, 1000, 5000, 10000, 25000, 50000, 100000},
		}, []string{"fuel_type"})
		StockLevelLitres = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stock_level_litres",
			Help:      "Current physical stock per depot and fuel type.",
		}, []string{"location", "fuel_type"})
		StockAvailableLitres = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stock_available_litres",
			Help:      "Stock open to new reservations per depot and fuel type.",
		}, []string{"location", "fuel_type"})
		ReservationsExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_expired_total",
			Help:      "Number of pending reservations reclaimed by the expiry sweeper.",
		})
		LedgerConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_conflicts_total",
			Help:      "Number of ledger operations that exhausted the optimistic retry budget.",
		})

		mustRegisterCollector(reg, QuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteTotal = v
			}
		})
		mustRegisterCollector(reg, ReservationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReservationsTotal = v
			}
		})
		mustRegisterCollector(reg, ReservationVolumeLitres, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				ReservationVolumeLitres = v
			}
		})
		mustRegisterCollector(reg, StockLevelLitres, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.GaugeVec); ok {
				StockLevelLitres = v
			}
		})
		mustRegisterCollector(reg, StockAvailableLitres, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.GaugeVec); ok {
				StockAvailableLitres = v
			}
		})
		mustRegisterCollector(reg, ReservationsExpiredTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ReservationsExpiredTotal = v
			}
		})
		mustRegisterCollector(reg, LedgerConflictsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				LedgerConflictsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
