package dataset

import (
	"time"
)

// Bar is one daily price record for a ticker as delivered by the data files.
// Close and PrevClose drive return derivation; the remaining fields are kept
// when the source provides them.
type Bar struct {
	Ticker    string    `json:"ticker"`
	Date      time.Time `json:"date"`
	Open      float64   `json:"open,omitempty"`
	High      float64   `json:"high,omitempty"`
	Low       float64   `json:"low,omitempty"`
	Close     float64   `json:"close"`
	PrevClose float64   `json:"prev_close,omitempty"`
	Volume    float64   `json:"volume,omitempty"`
}

// IsValid checks the fields required for return derivation
func (b Bar) IsValid() bool {
	return b.Ticker != "" && !b.Date.IsZero() && b.Close > 0
}

// HasPrevClose reports whether the bar carries a usable previous close.
// Vendors put the ex-rights adjusted previous close here, so when present it
// is preferred over the prior bar's raw close.
func (b Bar) HasPrevClose() bool {
	return b.PrevClose > 0
}

// Return computes the daily simple return close/prev_close - 1
func (b Bar) Return() float64 {
	if b.PrevClose <= 0 {
		return 0
	}
	return b.Close/b.PrevClose - 1
}
