package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlaced  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "agromath", Name: "orders_placed_total", Help: "Orders created"})
	OrdersByState = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "agromath", Name: "order_transitions_total", Help: "Order lifecycle transitions applied"},
		[]string{"to"},
	)
	QuotesSubmitted   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "agromath", Name: "quotes_submitted_total", Help: "Quotes submitted by transporters"})
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{Namespace: "agromath", Name: "notifications_total", Help: "Notification rows appended"})
	SMSDeliveries     = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "agromath", Name: "sms_deliveries_total", Help: "SMS delivery attempts by outcome"},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "agromath", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agromath",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
