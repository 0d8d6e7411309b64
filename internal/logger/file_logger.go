package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// Logger writes level-tagged lines for planning activity
type Logger struct {
	name    string
	logDir  string
	logFile *os.File
	logger  *log.Logger
	mu      sync.Mutex
	now     func() time.Time
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
	LogLevelStatus  LogLevel = "STATUS"
)

const timestampLayout = "2006-01-02 15:04:05"

// NewLogger opens (or appends to) logDir/<name>_<date>.log
func NewLogger(logDir, name string) (*Logger, error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{name: name, logDir: logDir, now: time.Now}

	file, err := os.OpenFile(l.GetLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l.logFile = file
	l.logger = log.New(file, "", 0)

	l.writeSessionHeader()
	return l, nil
}

// New creates a logger writing to w, without a session header
func New(w io.Writer, name string) *Logger {
	return &Logger{name: name, logger: log.New(w, "", 0), now: time.Now}
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return New(io.Discard, "discard")
}

func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
🚀 TRADE SETUP SESSION STARTED
================================================================================
Name: %s
Started: %s
================================================================================
`, l.name, l.now().Format(timestampLayout))

	l.logger.Print(header)
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	message := fmt.Sprintf(format, args...)
	l.logger.Println(fmt.Sprintf("[%s] [%s] %s", l.now().Format(timestampLayout), level, message))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Trade logs a trading action
func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

// Status logs status information
func (l *Logger) Status(format string, args ...interface{}) {
	l.Log(LogLevelStatus, format, args...)
}

// LogTradeSetup writes a block for a valid setup, or a single WARN line for a rejection
func (l *Logger) LogTradeSetup(setup types.TradeSetup) {
	if !setup.IsValid {
		l.Warning("%s %s rejected: %s", setup.Asset, setup.Signal, setup.ValidationMessage)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	setupLog := fmt.Sprintf(`
[%s] [TRADE] ==================== %s %s SETUP ====================
📦 Lot Size: %s (%s) | Contract: %g
🛑 Stop Loss: %g | Risk: $%.2f
🎯 Targets: %g / %g / %g
💵 Legs: %s / %s / %s | Profit: $%.2f / $%.2f / $%.2f
📈 Total Profit: $%.2f | R:R %s | Breakeven: %t
=============================================================`,
		l.now().Format(timestampLayout), setup.Asset, setup.Signal,
		setup.FormattedLotSize, setup.AssetCategory, setup.ContractSize,
		setup.StopLoss, setup.RiskAmount,
		setup.TakeProfits[0], setup.TakeProfits[1], setup.TakeProfits[2],
		setup.PartialCloseSizes[0], setup.PartialCloseSizes[1], setup.PartialCloseSizes[2],
		setup.PotentialProfit[0], setup.PotentialProfit[1], setup.PotentialProfit[2],
		setup.TotalPotentialProfit, setup.CalculatedRR, setup.MoveToBreakeven)

	l.logger.Println(setupLog)
}

// LogQuote logs a refreshed market price
func (l *Logger) LogQuote(q types.Quote) {
	l.Status("%s %s last price %g", q.Symbol, q.Category, q.Price)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// LogWarning logs warning with context
func (l *Logger) LogWarning(context string, message string, args ...interface{}) {
	l.Warning("%s", fmt.Sprintf(context+": "+message, args...))
}

// Close writes the session footer and closes the log file, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile == nil {
		return nil
	}

	l.logger.Print(fmt.Sprintf(`
================================================================================
🛑 TRADE SETUP SESSION ENDED
================================================================================
Ended: %s
================================================================================

`, l.now().Format(timestampLayout)))

	err := l.logFile.Close()
	l.logFile = nil
	return err
}

// GetLogPath returns the current log file path, or "" for writer-backed loggers
func (l *Logger) GetLogPath() string {
	if l.logDir == "" {
		return ""
	}
	filename := fmt.Sprintf("%s_%s.log", l.name, l.now().Format("2006-01-02"))
	return filepath.Join(l.logDir, filename)
}
