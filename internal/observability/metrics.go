package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hradmin_api_requests_total", Help: "API requests"},
		[]string{"endpoint", "status"},
	)
	ComplianceChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hradmin_compliance_checks_total", Help: "Compliance check outcomes"},
		[]string{"kind", "result"}, // kind: image|text, result: compliant|violation|error
	)
	SendsBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hradmin_sends_blocked_total", Help: "Sends blocked before dispatch"},
		[]string{"reason"}, // attachment_violations|body_violations|validation
	)
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hradmin_agent_calls_total", Help: "Campaign agent call outcomes"},
		[]string{"step", "result"},
	)
	AgentLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "hradmin_agent_call_latency_seconds", Help: "Campaign agent call latency"},
	)
	ScanCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hradmin_scan_cycles_total", Help: "Delivery scan cycles"},
		[]string{"result"}, // ok|error|skipped
	)
	DeliveryEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hradmin_delivery_events_total", Help: "Delivery webhook events"},
		[]string{"status"},
	)
	DedupHits = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hradmin_delivery_events_duplicate_total", Help: "Delivery events dropped as duplicates"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests, ComplianceChecks, SendsBlocked, AgentCalls, AgentLatency, ScanCycles, DeliveryEvents, DedupHits)
}
