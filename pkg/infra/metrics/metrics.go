package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SecurityMetrics holds the prometheus collectors for the request security
// pipeline. Collectors are registered against the given registerer so tests
// can use an isolated registry.
type SecurityMetrics struct {
	EventsIngested     *prometheus.CounterVec
	RequestsBlocked    *prometheus.CounterVec
	AttacksSynthesized *prometheus.CounterVec
	AlertDeliveries    *prometheus.CounterVec
	SuspiciousIPs      prometheus.Gauge
}

func NewSecurityMetrics(reg prometheus.Registerer) *SecurityMetrics {
	m := &SecurityMetrics{
		EventsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shield_security_events_total",
				Help: "Security events ingested by the threat monitor",
			},
			[]string{"type", "severity"},
		),
		RequestsBlocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shield_blocked_requests_total",
				Help: "Requests rejected by the security pipeline",
			},
			[]string{"reason"},
		),
		AttacksSynthesized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shield_attacks_synthesized_total",
				Help: "Attack classifications synthesized by pattern analysis",
			},
			[]string{"reason"},
		),
		AlertDeliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shield_alert_deliveries_total",
				Help: "Critical alert delivery attempts by outcome",
			},
			[]string{"status"},
		),
		SuspiciousIPs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shield_suspicious_ips",
				Help: "Source IPs currently classified as suspicious",
			},
		),
	}

	reg.MustRegister(
		m.EventsIngested,
		m.RequestsBlocked,
		m.AttacksSynthesized,
		m.AlertDeliveries,
		m.SuspiciousIPs,
	)
	return m
}
