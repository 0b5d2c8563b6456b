package domain

import (
	"time"
)

// AnalysisMethod identifies the correlation statistic carried by a report
type AnalysisMethod string

const (
	AnalysisMethodPearson  AnalysisMethod = "pearson"
	AnalysisMethodSpearman AnalysisMethod = "spearman"
	AnalysisMethodCombined AnalysisMethod = "combined"
)

// PairRequest represents a two-ticker correlation analysis request. Dates
// are ISO 8601 day strings; empty dates fall back to the configured default
// analysis window.
type PairRequest struct {
	TickerA  string `json:"ticker_a" validate:"required,ticker"`
	TickerB  string `json:"ticker_b" validate:"required,ticker,nefield=TickerA"`
	DateFrom string `json:"date_from,omitempty" validate:"omitempty,iso8601"`
	DateTo   string `json:"date_to,omitempty" validate:"omitempty,iso8601"`
}

// MatrixRequest represents a multi-ticker correlation analysis request.
// The same request drives single-method and combined analyses.
type MatrixRequest struct {
	Tickers  []string `json:"tickers" validate:"required,min=2,dive,ticker"`
	Method   string   `json:"method,omitempty" validate:"omitempty,oneof=pearson spearman combined"`
	DateFrom string   `json:"date_from,omitempty" validate:"omitempty,iso8601"`
	DateTo   string   `json:"date_to,omitempty" validate:"omitempty,iso8601"`
	TopK     int      `json:"top_k,omitempty" validate:"omitempty,min=1,max=100"`
}

// PairReport represents the result of a two-ticker correlation analysis.
// Coefficient fields are nil when the statistic is undefined for the pair.
type PairReport struct {
	ID          string    `json:"id"`
	TickerA     string    `json:"ticker_a"`
	TickerB     string    `json:"ticker_b"`
	Pearson     *float64  `json:"pearson_correlation"`
	PValue      *float64  `json:"p_value"`
	Spearman    *float64  `json:"spearman_correlation"`
	SampleDays  int       `json:"sample_days"`
	StartDate   string    `json:"start_date,omitempty"`
	EndDate     string    `json:"end_date,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// MatrixGrid is a full ticker-by-ticker grid of rounded correlation scores.
// A nil entry marks an undefined cell and serializes as JSON null.
type MatrixGrid map[string]map[string]*float64

// RankedPairEntry is one row of a top-K pair ranking
type RankedPairEntry struct {
	Rank       int      `json:"rank"`
	TickerA    string   `json:"ticker_a"`
	TickerB    string   `json:"ticker_b"`
	Score      *float64 `json:"score"`
	SampleDays int      `json:"sample_days"`
}

// UndefinedCell describes a matrix cell whose statistic could not be
// computed, with the reason it is undefined
type UndefinedCell struct {
	TickerA    string `json:"ticker_a"`
	TickerB    string `json:"ticker_b"`
	Reason     string `json:"reason"`
	SampleDays int    `json:"sample_days"`
}

// MatrixReport represents the result of a multi-ticker correlation analysis
// for a single statistic
type MatrixReport struct {
	ID          string            `json:"id"`
	Method      AnalysisMethod    `json:"method"`
	Tickers     []string          `json:"tickers"`
	TickerCount int               `json:"ticker_count"`
	DateFrom    string            `json:"date_from,omitempty"`
	DateTo      string            `json:"date_to,omitempty"`
	Matrix      MatrixGrid        `json:"matrix"`
	TopPairs    []RankedPairEntry `json:"top_pairs"`
	Undefined   []UndefinedCell   `json:"undefined_cells,omitempty"`
	Failures    map[string]string `json:"failed_tickers,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	Duration    time.Duration     `json:"duration"`
}

// CombinedReport represents the result of a combined analysis: both
// component matrices plus their cell-wise mean, ranked on the combined
// scores
type CombinedReport struct {
	ID          string            `json:"id"`
	Tickers     []string          `json:"tickers"`
	TickerCount int               `json:"ticker_count"`
	DateFrom    string            `json:"date_from,omitempty"`
	DateTo      string            `json:"date_to,omitempty"`
	Pearson     MatrixGrid        `json:"pearson_matrix"`
	Spearman    MatrixGrid        `json:"spearman_matrix"`
	Combined    MatrixGrid        `json:"combined_matrix"`
	TopPairs    []RankedPairEntry `json:"top_pairs"`
	Undefined   []UndefinedCell   `json:"undefined_cells,omitempty"`
	Failures    map[string]string `json:"failed_tickers,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	Duration    time.Duration     `json:"duration"`
}
