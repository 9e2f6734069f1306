package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "walletwise_auth"

var (
	// AuthOperations counts orchestrator calls by operation and outcome.
	AuthOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Authentication operations by outcome.",
	}, []string{"operation", "outcome"})

	// EmailDeliveries counts outbound email attempts by outcome.
	EmailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_deliveries_total",
		Help:      "Outbound email deliveries by outcome (sent, failed, dropped).",
	}, []string{"outcome"})

	// HTTPRequests counts served requests by route pattern and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"route", "status"})
)
