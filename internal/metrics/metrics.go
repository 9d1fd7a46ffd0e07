// Package metrics holds the Prometheus collectors for Houseshare.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/houseshare/internal/errs"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	rpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "houseshare",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of RPCs handled.",
		},
		[]string{"procedure", "code"},
	)

	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "houseshare",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Duration of RPCs.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"procedure"},
	)

	billPayments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "houseshare",
			Subsystem: "bills",
			Name:      "payments_total",
			Help:      "Bill payment attempts by result.",
		},
		[]string{"method", "result"},
	)

	walletOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "houseshare",
			Subsystem: "wallet",
			Name:      "operations_total",
			Help:      "Wallet operations by type and result.",
		},
		[]string{"op", "result"},
	)

	membershipOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "houseshare",
			Subsystem: "membership",
			Name:      "operations_total",
			Help:      "House membership operations by type and result.",
		},
		[]string{"op", "result"},
	)
)

func init() {
	Registry.MustRegister(
		rpcRequests,
		rpcDuration,
		billPayments,
		walletOps,
		membershipOps,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveRPC records one RPC with its connect code.
func ObserveRPC(procedure, code string, d time.Duration) {
	rpcRequests.WithLabelValues(procedure, code).Inc()
	rpcDuration.WithLabelValues(procedure).Observe(d.Seconds())
}

// RecordBillPayment counts a PayBill attempt.
func RecordBillPayment(method string, err error) {
	billPayments.WithLabelValues(method, result(err)).Inc()
}

// RecordWallet counts a wallet operation (topup, debit, house_withdraw).
func RecordWallet(op string, err error) {
	walletOps.WithLabelValues(op, result(err)).Inc()
}

// RecordMembership counts a membership operation (create, join, manage_add, leave, ...).
func RecordMembership(op string, err error) {
	membershipOps.WithLabelValues(op, result(err)).Inc()
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(errs.ReasonOf(err))
}
