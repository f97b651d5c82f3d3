// Package metrics exposes session store statistics as Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"warden/internal/domain/session"
)

// Collector holds the Prometheus instruments for the session store. Gauges
// are refreshed from store stats after each sweep and on demand.
type Collector struct {
	sessionsTotal  prometheus.Gauge
	activeUsers    prometheus.Gauge
	expiredBacklog prometheus.Gauge
	sweptTotal     prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		sessionsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "warden_sessions_total",
			Help: "Number of session records currently in the store, expired or not.",
		}),
		activeUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "warden_active_users",
			Help: "Number of distinct users with at least one session record.",
		}),
		expiredBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Name: "warden_sessions_expired_backlog",
			Help: "Session records past expiry not yet reclaimed by the sweeper.",
		}),
		sweptTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "warden_sessions_swept_total",
			Help: "Total expired sessions reclaimed by the sweeper.",
		}),
	}
}

// SetStats refreshes the gauges from a store snapshot.
func (c *Collector) SetStats(stats session.Stats) {
	c.sessionsTotal.Set(float64(stats.TotalSessions))
	c.activeUsers.Set(float64(stats.ActiveUsers))
	c.expiredBacklog.Set(float64(stats.ExpiredSessions))
}

// AddSwept records sessions reclaimed by a sweep run.
func (c *Collector) AddSwept(count int) {
	if count > 0 {
		c.sweptTotal.Add(float64(count))
	}
}
