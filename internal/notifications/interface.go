package notifications

import "context"

// Alert levels
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
	LevelSuccess = "success"
)

// Notifier defines the interface for notification services
type Notifier interface {
	// SendAlert sends an alert with the specified level and message
	SendAlert(ctx context.Context, level, message string) error
}

// NopNotifier drops every alert
type NopNotifier struct{}

func (NopNotifier) SendAlert(context.Context, string, string) error { return nil }
