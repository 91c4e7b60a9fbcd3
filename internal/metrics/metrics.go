// Package metrics exposes Prometheus counters for engine outcomes, served on
// the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesSent counts successful deliveries, labelled by the engine
	// path that produced them (scheduled or drip).
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leads_messages_sent_total",
		Help: "Total number of WhatsApp messages delivered successfully",
	}, []string{"source"})

	// MessagesFailed counts delivery attempts rejected by the gateway.
	MessagesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leads_messages_failed_total",
		Help: "Total number of WhatsApp delivery attempts that failed",
	}, []string{"source"})

	// InboundReceived counts inbound messages processed by the reconciler
	// after dedup.
	InboundReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leads_inbound_received_total",
		Help: "Total number of inbound WhatsApp messages processed",
	})

	// CampaignsEnqueued counts drip queue entries created by the enqueuer.
	CampaignsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leads_drip_entries_enqueued_total",
		Help: "Total number of drip queue entries created",
	})
)
