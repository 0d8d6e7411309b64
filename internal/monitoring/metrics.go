package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Setup metrics
	setupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_setup_setups_total",
			Help: "Total number of trade setups built",
		},
		[]string{"category", "outcome"},
	)

	rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_setup_rejections_total",
			Help: "Rejected setups by rejection code",
		},
		[]string{"code"},
	)

	lotSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trade_setup_lot_size",
			Help:    "Distribution of lot sizes of valid setups",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100},
		},
		[]string{"category"},
	)

	riskAmount = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trade_setup_risk_amount",
			Help:    "Distribution of account currency risked per valid setup",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"category"},
	)

	// Market data metrics
	lastPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trade_setup_last_price",
			Help: "Last quoted price of a symbol",
		},
		[]string{"symbol"},
	)

	quoteRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_setup_quote_requests_total",
			Help: "Quote lookups by result",
		},
		[]string{"result"},
	)

	quoteRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trade_setup_quote_retries_total",
			Help: "Retried quote requests",
		},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_setup_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(setupsTotal)
	prometheus.MustRegister(rejectionsTotal)
	prometheus.MustRegister(lotSize)
	prometheus.MustRegister(riskAmount)
	prometheus.MustRegister(lastPrice)
	prometheus.MustRegister(quoteRequests)
	prometheus.MustRegister(quoteRetries)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct {
	handler http.Handler
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{handler: promhttp.Handler()}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// RecordSetup records a built setup. Rejections are counted by code as well.
func RecordSetup(category string, valid bool, code string, lots, risk float64) {
	if category == "" {
		category = "unknown"
	}

	if !valid {
		setupsTotal.WithLabelValues(category, "rejected").Inc()
		if code == "" {
			code = "UNKNOWN"
		}
		rejectionsTotal.WithLabelValues(code).Inc()
		return
	}

	setupsTotal.WithLabelValues(category, "valid").Inc()
	lotSize.WithLabelValues(category).Observe(lots)
	riskAmount.WithLabelValues(category).Observe(risk)
}

// RecordQuote records the outcome of a quote lookup
func RecordQuote(symbol string, price float64, err error) {
	if err != nil {
		quoteRequests.WithLabelValues("error").Inc()
		return
	}
	quoteRequests.WithLabelValues("ok").Inc()
	lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordQuoteRetry counts a retried quote request
func RecordQuoteRetry() {
	quoteRetries.Inc()
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
