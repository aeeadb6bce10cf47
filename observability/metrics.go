package observability

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	reserveMetricsOnce sync.Once
	reserveRegistry    *ReserveMetrics

	backstopMetricsOnce sync.Once
	backstopRegistry    *BackstopMetrics

	auctionMetricsOnce sync.Once
	auctionRegistry    *AuctionMetrics
)

// ModuleMetrics returns the lazily-initialised module metrics registry used to
// record RPC module activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "corelend",
				Subsystem: "module",
				Name:      "requests_total",
				Help:      "Total JSON-RPC module requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "corelend",
				Subsystem: "module",
				Name:      "errors_total",
				Help:      "Total JSON-RPC module errors segmented by module, method, and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "corelend",
				Subsystem: "module",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC module handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "corelend",
				Subsystem: "module",
				Name:      "throttles_total",
				Help:      "Count of module requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a module request. The status code should be
// the HTTP status that was ultimately written to the response writer.
func (m *moduleMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason. Reasons should be stable strings such as "rate_limit" or
// "quota_exceeded" so dashboards and alerts remain consistent.
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// ReserveMetrics tracks per-reserve utilisation and rate gauges, refreshed by
// the pool whenever a reserve is accrued.
type ReserveMetrics struct {
	utilization *prometheus.GaugeVec
	borrowAPR   *prometheus.GaugeVec
	supplyAPR   *prometheus.GaugeVec
	bSupply     *prometheus.GaugeVec
	dSupply     *prometheus.GaugeVec
}

// Reserve returns the singleton reserve metrics registry.
func Reserve() *ReserveMetrics {
	reserveMetricsOnce.Do(func() {
		reserveRegistry = &ReserveMetrics{
			utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "corelend",
				Subsystem: "reserve",
				Name:      "utilization_ratio",
				Help:      "Current reserve utilisation (d_supply / b_supply, scaled to 0-1) by pool and asset.",
			}, []string{"pool", "asset"}),
			borrowAPR: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "corelend",
				Subsystem: "reserve",
				Name:      "borrow_apr",
				Help:      "Annualised borrow rate by pool and asset (0-1 scale).",
			}, []string{"pool", "asset"}),
			supplyAPR: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "corelend",
				Subsystem: "reserve",
				Name:      "supply_apr",
				Help:      "Annualised supply rate by pool and asset (0-1 scale), after the backstop take rate.",
			}, []string{"pool", "asset"}),
			bSupply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "corelend",
				Subsystem: "reserve",
				Name:      "b_supply_tokens",
				Help:      "Outstanding bToken supply by pool and asset.",
			}, []string{"pool", "asset"}),
			dSupply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "corelend",
				Subsystem: "reserve",
				Name:      "d_supply_tokens",
				Help:      "Outstanding dToken supply by pool and asset.",
			}, []string{"pool", "asset"}),
		}
		prometheus.MustRegister(
			reserveRegistry.utilization,
			reserveRegistry.borrowAPR,
			reserveRegistry.supplyAPR,
			reserveRegistry.bSupply,
			reserveRegistry.dSupply,
		)
	})
	return reserveRegistry
}

// ObserveAccrual records a reserve's post-accrual state. Rates are supplied
// SCALAR_7-scaled, as reserve.Data stores them; supply totals are in native
// token units.
func (m *ReserveMetrics) ObserveAccrual(pool, asset string, util, borrowRate, supplyRate *big.Int, bSupply, dSupply *big.Int) {
	if m == nil {
		return
	}
	labelPool, labelAssetName := labelAsset(pool), labelAsset(asset)
	m.utilization.WithLabelValues(labelPool, labelAssetName).Set(scalar7ToFloat(util))
	m.borrowAPR.WithLabelValues(labelPool, labelAssetName).Set(scalar7ToFloat(borrowRate))
	m.supplyAPR.WithLabelValues(labelPool, labelAssetName).Set(scalar7ToFloat(supplyRate))
	m.bSupply.WithLabelValues(labelPool, labelAssetName).Set(bigToFloat(bSupply))
	m.dSupply.WithLabelValues(labelPool, labelAssetName).Set(bigToFloat(dSupply))
}

// BackstopMetrics tracks the insurance pool's staked size and queued
// withdrawal pressure.
type BackstopMetrics struct {
	shares     *prometheus.GaugeVec
	q4wShares  *prometheus.GaugeVec
	tokenValue *prometheus.GaugeVec
}

// Backstop returns the singleton backstop metrics registry.
func Backstop() *BackstopMetrics {
	backstopMetricsOnce.Do(func() {
		backstopRegistry = &BackstopMetrics{
			shares: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "corelend",
				Subsystem: "backstop",
				Name:      "shares_total",
				Help:      "Total outstanding backstop shares for a pool.",
			}, []string{"pool"}),
			q4wShares: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "corelend",
				Subsystem: "backstop",
				Name:      "q4w_shares",
				Help:      "Backstop shares currently queued for withdrawal for a pool.",
			}, []string{"pool"}),
			tokenValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "corelend",
				Subsystem: "backstop",
				Name:      "blnd_per_token",
				Help:      "BLND value of one backstop LP token (SCALAR_7 decimal).",
			}, []string{"pool"}),
		}
		prometheus.MustRegister(
			backstopRegistry.shares,
			backstopRegistry.q4wShares,
			backstopRegistry.tokenValue,
		)
	})
	return backstopRegistry
}

// ObservePoolBalance records a pool's staked backstop shares and queued
// withdrawal pressure.
func (m *BackstopMetrics) ObservePoolBalance(pool string, shares, q4w *big.Int) {
	if m == nil {
		return
	}
	label := labelAsset(pool)
	m.shares.WithLabelValues(label).Set(bigToFloat(shares))
	m.q4wShares.WithLabelValues(label).Set(bigToFloat(q4w))
}

// ObserveTokenValue records the BLND-per-backstop-token exchange rate.
func (m *BackstopMetrics) ObserveTokenValue(pool string, blndPerToken *big.Int) {
	if m == nil {
		return
	}
	m.tokenValue.WithLabelValues(labelAsset(pool)).Set(scalar7ToFloat(blndPerToken))
}

// AuctionMetrics tracks auction lifecycle activity across the three auction
// kinds (user liquidation, bad debt, interest).
type AuctionMetrics struct {
	created *prometheus.CounterVec
	filled  *prometheus.CounterVec
	deleted *prometheus.CounterVec
}

// Auction returns the singleton auction metrics registry.
func Auction() *AuctionMetrics {
	auctionMetricsOnce.Do(func() {
		auctionRegistry = &AuctionMetrics{
			created: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "corelend",
				Subsystem: "auction",
				Name:      "created_total",
				Help:      "Count of auctions created by pool and auction type.",
			}, []string{"pool", "type"}),
			filled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "corelend",
				Subsystem: "auction",
				Name:      "filled_total",
				Help:      "Count of auctions filled by pool and auction type.",
			}, []string{"pool", "type"}),
			deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "corelend",
				Subsystem: "auction",
				Name:      "deleted_total",
				Help:      "Count of auctions deleted (expired or cancelled) by pool and auction type.",
			}, []string{"pool", "type"}),
		}
		prometheus.MustRegister(
			auctionRegistry.created,
			auctionRegistry.filled,
			auctionRegistry.deleted,
		)
	})
	return auctionRegistry
}

// RecordCreated increments the creation counter for an auction type.
func (m *AuctionMetrics) RecordCreated(pool, auctionType string) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(labelAsset(pool), auctionType).Inc()
}

// RecordFilled increments the fill counter for an auction type.
func (m *AuctionMetrics) RecordFilled(pool, auctionType string) {
	if m == nil {
		return
	}
	m.filled.WithLabelValues(labelAsset(pool), auctionType).Inc()
}

// RecordDeleted increments the deletion counter for an auction type.
func (m *AuctionMetrics) RecordDeleted(pool, auctionType string) {
	if m == nil {
		return
	}
	m.deleted.WithLabelValues(labelAsset(pool), auctionType).Inc()
}

func labelAsset(asset string) string {
	trimmed := strings.TrimSpace(asset)
	if trimmed == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(trimmed)
}

func bigToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	floatVal, acc := new(big.Float).SetInt(value).Float64()
	if acc != big.Exact {
		if math.IsNaN(floatVal) || math.IsInf(floatVal, 0) {
			return 0
		}
	}
	return floatVal
}

// scalar7ToFloat converts a SCALAR_7-fixed-point value to its decimal float
// form for gauge exposition (e.g. 500_0000 -> 0.05).
func scalar7ToFloat(value *big.Int) float64 {
	return bigToFloat(value) / 10_000_000
}
