package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EmissionsMetrics tracks the weekly emissions cycle: reward-zone admission,
// per-pool gulps, and claim activity.
type EmissionsMetrics struct {
	zoneAdmitted    *prometheus.CounterVec
	zoneEvicted     *prometheus.CounterVec
	zoneSize        prometheus.Gauge
	gulped          *prometheus.CounterVec
	claimed         *prometheus.CounterVec
	claimedAmount   *prometheus.GaugeVec
	emitterDistro   prometheus.Counter
	emitterDropTime prometheus.Gauge
}

var (
	emissionsOnce     sync.Once
	emissionsRegistry *EmissionsMetrics
)

// Emissions returns the singleton emissions metrics registry.
func Emissions() *EmissionsMetrics {
	emissionsOnce.Do(func() {
		emissionsRegistry = &EmissionsMetrics{
			zoneAdmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "corelend_emissions_reward_zone_admitted_total",
				Help: "Count of pools admitted into the reward zone.",
			}, []string{"pool"}),
			zoneEvicted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "corelend_emissions_reward_zone_evicted_total",
				Help: "Count of pools evicted from the reward zone by a higher-staked challenger.",
			}, []string{"pool"}),
			zoneSize: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "corelend_emissions_reward_zone_size",
				Help: "Current number of pools occupying the reward zone.",
			}),
			gulped: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "corelend_emissions_gulped_total",
				Help: "Count of emission gulps by pool (opening a new weekly EPS window).",
			}, []string{"pool"}),
			claimed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "corelend_emissions_claims_total",
				Help: "Count of emission claims by pool.",
			}, []string{"pool"}),
			claimedAmount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "corelend_emissions_last_claim_blnd",
				Help: "BLND amount of the most recent claim by pool (SCALAR_7 decimal).",
			}, []string{"pool"}),
			emitterDistro: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "corelend_emitter_distributions_total",
				Help: "Count of emitter distribute() calls that moved BLND into the backstop.",
			}),
			emitterDropTime: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "corelend_emitter_last_distro_time",
				Help: "Unix timestamp of the emitter's last distribution.",
			}),
		}
		prometheus.MustRegister(
			emissionsRegistry.zoneAdmitted,
			emissionsRegistry.zoneEvicted,
			emissionsRegistry.zoneSize,
			emissionsRegistry.gulped,
			emissionsRegistry.claimed,
			emissionsRegistry.claimedAmount,
			emissionsRegistry.emitterDistro,
			emissionsRegistry.emitterDropTime,
		)
	})
	return emissionsRegistry
}

// RecordZoneAdmitted increments the admission counter for a pool.
func (m *EmissionsMetrics) RecordZoneAdmitted(pool string) {
	if m == nil {
		return
	}
	m.zoneAdmitted.WithLabelValues(normalise(pool)).Inc()
}

// RecordZoneEvicted increments the eviction counter for a pool.
func (m *EmissionsMetrics) RecordZoneEvicted(pool string) {
	if m == nil {
		return
	}
	m.zoneEvicted.WithLabelValues(normalise(pool)).Inc()
}

// SetZoneSize records the reward zone's current occupancy.
func (m *EmissionsMetrics) SetZoneSize(size int) {
	if m == nil {
		return
	}
	m.zoneSize.Set(float64(size))
}

// RecordGulp increments the gulp counter for a pool.
func (m *EmissionsMetrics) RecordGulp(pool string) {
	if m == nil {
		return
	}
	m.gulped.WithLabelValues(normalise(pool)).Inc()
}

// RecordClaim increments the claim counter for a pool and records the claimed
// amount (as a SCALAR_7 decimal float).
func (m *EmissionsMetrics) RecordClaim(pool string, amountScalar7 float64) {
	if m == nil {
		return
	}
	label := normalise(pool)
	m.claimed.WithLabelValues(label).Inc()
	m.claimedAmount.WithLabelValues(label).Set(amountScalar7)
}

// RecordEmitterDistribution records a completed emitter distribution at the
// given unix timestamp.
func (m *EmissionsMetrics) RecordEmitterDistribution(now uint64) {
	if m == nil {
		return
	}
	m.emitterDistro.Inc()
	m.emitterDropTime.Set(float64(now))
}

func normalise(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "unknown"
	}
	return strings.ToLower(trimmed)
}
