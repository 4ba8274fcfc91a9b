package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_security_payments_total",
		Help: "Orchestrated payment attempts by outcome code.",
	}, []string{"outcome"})

	FraudChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_security_fraud_checks_total",
		Help: "Fraud assessments by risk level.",
	}, []string{"risk_level"})

	FraudScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_security_fraud_score",
		Help:    "Distribution of fraud scores.",
		Buckets: []float64{0, 10, 25, 40, 55, 70, 85, 100, 150},
	})

	FraudFailSafe = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_security_fraud_failsafe_total",
		Help: "Fraud checks that failed internally and were blocked.",
	})

	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_security_gateway_duration_seconds",
		Help:    "Latency of payment gateway calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	AuditEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_security_audit_events_total",
		Help: "Emitted audit events by type.",
	}, []string{"event_type"})

	AuditSinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_security_audit_sink_errors_total",
		Help: "Audit sink write failures.",
	}, []string{"sink"})
)
