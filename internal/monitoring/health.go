package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

const (
	maxRecentErrors = 10
	errorWindow     = 5 * time.Minute
)

type recordedError struct {
	at      time.Time
	message string
}

type HealthChecker struct {
	mu             sync.RWMutex
	lastSetup      time.Time
	lastPrice      float64
	quotesEnabled  bool
	quoteConnected bool
	errors         []recordedError
	now            func() time.Time
}

type HealthStatus struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	LastSetup      time.Time `json:"last_setup"`
	LastPrice      float64   `json:"last_price"`
	QuotesEnabled  bool      `json:"quotes_enabled"`
	QuoteConnected bool      `json:"quote_connected"`
	Uptime         string    `json:"uptime"`
	Errors         []string  `json:"errors,omitempty"`
}

// NewHealthChecker creates a checker. quotesEnabled marks whether a quote
// provider is wired; without one the quote state never degrades health.
func NewHealthChecker(quotesEnabled bool) *HealthChecker {
	return &HealthChecker{
		quotesEnabled:  quotesEnabled,
		quoteConnected: quotesEnabled,
		now:            time.Now,
	}
}

// MarkSetup records the time of the last built setup
func (h *HealthChecker) MarkSetup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSetup = h.now()
}

// MarkQuote records the outcome of the last quote lookup
func (h *HealthChecker) MarkQuote(price float64, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.quoteConnected = err == nil
	if err == nil {
		h.lastPrice = price
	}
}

// RecordError keeps the most recent errors for the health report
func (h *HealthChecker) RecordError(err error) {
	if err == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.errors = append(h.errors, recordedError{at: h.now(), message: err.Error()})
	if len(h.errors) > maxRecentErrors {
		h.errors = h.errors[len(h.errors)-maxRecentErrors:]
	}
}

// Check computes the current status and its HTTP code
func (h *HealthChecker) Check() (HealthStatus, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.now()
	var recent []string
	for _, e := range h.errors {
		if now.Sub(e.at) <= errorWindow {
			recent = append(recent, e.message)
		}
	}

	status, code := "healthy", http.StatusOK
	if h.quotesEnabled && !h.quoteConnected {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	if len(recent) > 0 {
		status, code = "unhealthy", http.StatusInternalServerError
	}

	return HealthStatus{
		Status:         status,
		Timestamp:      now,
		LastSetup:      h.lastSetup,
		LastPrice:      h.lastPrice,
		QuotesEnabled:  h.quotesEnabled,
		QuoteConnected: h.quoteConnected,
		Uptime:         time.Since(startTime).String(),
		Errors:         recent,
	}, code
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health, code := h.Check()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(health)
}
