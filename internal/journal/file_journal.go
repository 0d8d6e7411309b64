package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ducminhle1904/trade-setup-engine/internal/errors"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// Status of a journal entry
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Entry is one trade taken from a setup
type Entry struct {
	ID         string       `json:"id"`
	Asset      string       `json:"asset"`
	Signal     types.Signal `json:"signal"`
	EntryPrice float64      `json:"entryPrice"`
	StopLoss   float64      `json:"stopLoss"`
	LotSize    float64      `json:"lotSize"`
	RiskAmount float64      `json:"riskAmount"`
	Status     Status       `json:"status"`
	OpenedAt   time.Time    `json:"openedAt"`
	ClosedAt   *time.Time   `json:"closedAt,omitempty"`
	ExitPrice  float64      `json:"exitPrice,omitempty"`
	PnL        float64      `json:"pnl"`
}

// DailyStats summarizes the trades opened on one UTC day
type DailyStats struct {
	Date        string  `json:"date"`
	TradeCount  int     `json:"tradeCount"`
	RealizedPnL float64 `json:"realizedPnl"`
	DailyLoss   float64 `json:"dailyLoss"`
}

type journalState struct {
	Entries     []Entry   `json:"entries"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// FileJournal persists entries to a single JSON file
type FileJournal struct {
	mu       sync.RWMutex
	filePath string
	now      func() time.Time
}

// NewFileJournal creates a journal backed by filePath
func NewFileJournal(filePath string) (*FileJournal, error) {
	if filePath == "" {
		filePath = "trade_journal.json"
	}

	dir := filepath.Dir(filePath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperrors.NewStorageError("journal", "init", err)
		}
	}

	return &FileJournal{filePath: filePath, now: time.Now}, nil
}

// Path returns the backing file
func (j *FileJournal) Path() string {
	return j.filePath
}

// EntryFromSetup turns a valid setup into an open journal entry
func EntryFromSetup(setup types.TradeSetup, entryPrice float64) Entry {
	return Entry{
		Asset:      setup.Asset,
		Signal:     setup.Signal,
		EntryPrice: entryPrice,
		StopLoss:   setup.StopLoss,
		LotSize:    setup.LotSize,
		RiskAmount: setup.RiskAmount,
	}
}

// Record appends an open entry and returns it with its ID and timestamp filled
func (j *FileJournal) Record(entry Entry) (Entry, error) {
	if entry.Asset == "" {
		return Entry{}, apperrors.NewValidationError("journal", "record", "asset is required")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	state, err := j.load()
	if err != nil {
		return Entry{}, err
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.OpenedAt.IsZero() {
		entry.OpenedAt = j.now()
	}
	entry.OpenedAt = entry.OpenedAt.UTC()
	if entry.Status == "" {
		entry.Status = StatusOpen
	}

	state.Entries = append(state.Entries, entry)
	if err := j.save(state); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Close marks an open entry closed with its exit price and realized PnL
func (j *FileJournal) Close(id string, exitPrice, pnl float64, at time.Time) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	state, err := j.load()
	if err != nil {
		return Entry{}, err
	}

	for i := range state.Entries {
		e := &state.Entries[i]
		if e.ID != id {
			continue
		}
		if e.Status == StatusClosed {
			return Entry{}, apperrors.NewValidationError("journal", "close", fmt.Sprintf("entry %s already closed", id))
		}

		if at.IsZero() {
			at = j.now()
		}
		closedAt := at.UTC()
		e.Status = StatusClosed
		e.ClosedAt = &closedAt
		e.ExitPrice = exitPrice
		e.PnL = pnl

		if err := j.save(state); err != nil {
			return Entry{}, err
		}
		return *e, nil
	}

	return Entry{}, apperrors.New(apperrors.ErrorCategoryNotFound, "journal", "close", fmt.Sprintf("entry %s not found", id))
}

// Entries returns every recorded entry in insertion order
func (j *FileJournal) Entries() ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	state, err := j.load()
	if err != nil {
		return nil, err
	}
	return state.Entries, nil
}

// DailyStats counts trades opened on now's UTC day. Realized PnL covers the
// closed ones among them; DailyLoss is the net loss, never negative.
func (j *FileJournal) DailyStats(now time.Time) (DailyStats, error) {
	entries, err := j.Entries()
	if err != nil {
		return DailyStats{}, err
	}
	return ComputeDailyStats(entries, now), nil
}

// ComputeDailyStats is DailyStats over an in-memory slice
func ComputeDailyStats(entries []Entry, now time.Time) DailyStats {
	day := now.UTC().Format("2006-01-02")
	stats := DailyStats{Date: day}

	for _, e := range entries {
		if e.OpenedAt.UTC().Format("2006-01-02") != day {
			continue
		}
		stats.TradeCount++
		if e.Status == StatusClosed {
			stats.RealizedPnL += e.PnL
		}
	}

	if stats.RealizedPnL < 0 {
		stats.DailyLoss = -stats.RealizedPnL
	}
	return stats
}

func (j *FileJournal) load() (*journalState, error) {
	data, err := os.ReadFile(j.filePath)
	if os.IsNotExist(err) {
		return &journalState{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("journal", "load", err)
	}

	var state journalState
	if len(data) > 0 {
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, apperrors.NewStorageError("journal", "load", fmt.Errorf("failed to unmarshal journal: %w", err))
		}
	}
	return &state, nil
}

func (j *FileJournal) save(state *journalState) error {
	state.LastUpdated = j.now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("journal", "save", fmt.Errorf("failed to marshal journal: %w", err))
	}

	// Write to temporary file first, then rename over the journal
	tempFile := j.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return apperrors.NewStorageError("journal", "save", err)
	}
	if err := os.Rename(tempFile, j.filePath); err != nil {
		os.Remove(tempFile)
		return apperrors.NewStorageError("journal", "save", err)
	}
	return nil
}
