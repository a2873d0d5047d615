package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type StorageMetrics struct {
	OperationDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	CustomersCreatedTotal prometheus.Counter
	LoansCreatedTotal     prometheus.Counter
	LoansMergedTotal      prometheus.Counter
	LoansPaidTotal        prometheus.Counter
	LoansOverdueTotal     prometheus.Counter
	PaymentsRecordedTotal prometheus.Counter
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_management_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_management_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	Storage = StorageMetrics{
		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_management_storage_operation_duration_seconds",
				Help:    "Histogram of storage operation latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
	}

	Business = BusinessMetrics{
		CustomersCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_management_customers_created_total",
				Help: "Total number of customers registered.",
			},
		),
		LoansCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_management_loans_created_total",
				Help: "Total number of new loan records created.",
			},
		),
		LoansMergedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_management_loans_merged_total",
				Help: "Total number of drafts folded into an existing pending loan.",
			},
		),
		LoansPaidTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_management_loans_paid_total",
				Help: "Total number of loans settled in full.",
			},
		),
		LoansOverdueTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_management_loans_overdue_total",
				Help: "Total number of loans flipped to overdue by the 30-day rule.",
			},
		),
		PaymentsRecordedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_management_payments_recorded_total",
				Help: "Total number of payments recorded.",
			},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordStorageOperation(operation, status string, duration time.Duration) {
	Storage.OperationDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}
