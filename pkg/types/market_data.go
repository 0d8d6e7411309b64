package types

import "time"

// Quote is the last traded price of a symbol on an exchange
type Quote struct {
	Symbol    string    `json:"symbol"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
