package correlation

import (
	"sort"
	"time"
)

// Method identifies the statistic a correlation matrix carries.
type Method string

const (
	// MethodPearson is the Pearson product-moment coefficient
	MethodPearson Method = "pearson"
	// MethodSpearman is the Spearman rank coefficient
	MethodSpearman Method = "spearman"
	// MethodCombined is the cell-wise mean of Pearson and Spearman
	MethodCombined Method = "combined"
)

// String returns the string representation of the method
func (m Method) String() string {
	return string(m)
}

// IsValid checks if the method is a known statistic
func (m Method) IsValid() bool {
	switch m {
	case MethodPearson, MethodSpearman, MethodCombined:
		return true
	default:
		return false
	}
}

// ParseMethod converts a string into a Method
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.IsValid() {
		return "", newError(KindInvalidMethod, "", "", "unknown correlation method %q", s)
	}
	return m, nil
}

// ReturnPoint is a single day's simple return for a ticker
type ReturnPoint struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// ReturnSeries holds a ticker's daily simple returns ordered by trade date.
// Dates are unique and strictly ascending; use NewReturnSeries to build one
// from raw points.
type ReturnSeries struct {
	Ticker string        `json:"ticker"`
	Points []ReturnPoint `json:"points"`
}

// NewReturnSeries normalizes raw return points into a valid series: dates are
// truncated to UTC midnight, points sorted ascending, and when the same date
// appears more than once the last supplied value wins.
func NewReturnSeries(ticker string, points []ReturnPoint) ReturnSeries {
	normalized := make([]ReturnPoint, len(points))
	for i, p := range points {
		normalized[i] = ReturnPoint{Date: dayKey(p.Date), Return: p.Return}
	}
	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].Date.Before(normalized[j].Date)
	})

	deduped := normalized[:0]
	for _, p := range normalized {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(p.Date) {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}

	return ReturnSeries{Ticker: ticker, Points: deduped}
}

// Len returns the number of observations in the series
func (s ReturnSeries) Len() int {
	return len(s.Points)
}

// IsValid checks the series invariants: a non-empty ticker and strictly
// ascending unique dates
func (s ReturnSeries) IsValid() bool {
	if s.Ticker == "" {
		return false
	}
	for i := 1; i < len(s.Points); i++ {
		if !s.Points[i-1].Date.Before(s.Points[i].Date) {
			return false
		}
	}
	return true
}

// dayKey truncates a timestamp to its UTC trade date so dates compare and
// hash consistently regardless of source time zone.
func dayKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AlignedPair is the result of aligning two return series on their shared
// trade dates: the ascending shared dates plus two parallel return slices of
// identical length.
type AlignedPair struct {
	TickerA  string      `json:"ticker_a"`
	TickerB  string      `json:"ticker_b"`
	Dates    []time.Time `json:"dates"`
	ReturnsA []float64   `json:"returns_a"`
	ReturnsB []float64   `json:"returns_b"`
}

// Samples returns the number of shared observations
func (p AlignedPair) Samples() int {
	return len(p.Dates)
}

// StartDate returns the first shared trade date
func (p AlignedPair) StartDate() time.Time {
	if len(p.Dates) == 0 {
		return time.Time{}
	}
	return p.Dates[0]
}

// EndDate returns the last shared trade date
func (p AlignedPair) EndDate() time.Time {
	if len(p.Dates) == 0 {
		return time.Time{}
	}
	return p.Dates[len(p.Dates)-1]
}

// IsValid checks that the parallel slices agree in length
func (p AlignedPair) IsValid() bool {
	return p.TickerA != "" && p.TickerB != "" &&
		len(p.Dates) == len(p.ReturnsA) && len(p.Dates) == len(p.ReturnsB)
}

// PairCorrelation is the full two-ticker result: both coefficients, the
// Pearson p-value, and the aligned window they were computed over.
type PairCorrelation struct {
	TickerA   string    `json:"ticker_a"`
	TickerB   string    `json:"ticker_b"`
	Pearson   float64   `json:"pearson"`
	PValue    float64   `json:"p_value"`
	Spearman  float64   `json:"spearman"`
	Samples   int       `json:"samples"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// RankedPair is one entry of a top-K ranking drawn from a matrix
type RankedPair struct {
	Rank    int     `json:"rank"`
	TickerA string  `json:"ticker_a"`
	TickerB string  `json:"ticker_b"`
	Score   float64 `json:"score"`
	Samples int     `json:"samples"`
}

// SeriesResult is the outcome of fetching one ticker's return series:
// either a usable series or the error that prevented one.
type SeriesResult struct {
	Series ReturnSeries
	Err    error
}

// Failed reports whether the fetch produced no usable series
func (r SeriesResult) Failed() bool {
	return r.Err != nil
}

// SeriesSet maps ticker symbols to their fetch outcomes. It is the input to
// a matrix build: failed entries are excluded from the matrix and reported,
// never fatal on their own.
type SeriesSet map[string]SeriesResult

// UsableTickers returns the tickers with successful fetches, lexically sorted
func (s SeriesSet) UsableTickers() []string {
	tickers := make([]string, 0, len(s))
	for ticker, result := range s {
		if !result.Failed() {
			tickers = append(tickers, ticker)
		}
	}
	sort.Strings(tickers)
	return tickers
}

// Failures collects the failed fetches as a FetchFailureSet
func (s SeriesSet) Failures() FetchFailureSet {
	failures := make(FetchFailureSet)
	for ticker, result := range s {
		if result.Failed() {
			failures[ticker] = result.Err.Error()
		}
	}
	return failures
}

// FetchFailureSet maps ticker symbols to the reason their series could not be
// fetched. It travels with every matrix-level result so partial failures are
// reported, never silently dropped.
type FetchFailureSet map[string]string

// Tickers returns the failed ticker symbols, lexically sorted
func (f FetchFailureSet) Tickers() []string {
	tickers := make([]string, 0, len(f))
	for ticker := range f {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// Params holds the policy knobs for correlation analysis
type Params struct {
	// MinOverlap is the minimum number of shared trade dates a pair needs
	// before a coefficient is defined
	MinOverlap int `json:"min_overlap"`
	// TopK is the default ranking depth when a caller does not supply one
	TopK int `json:"top_k"`
}

// DefaultParams returns the standard analysis policy
func DefaultParams() Params {
	return Params{
		MinOverlap: DefaultMinOverlap,
		TopK:       DefaultTopK,
	}
}

// IsValid checks if the params are usable
func (p Params) IsValid() bool {
	return p.MinOverlap >= 2 && p.TopK > 0
}

// withDefaults fills zero-valued fields from the default policy
func (p Params) withDefaults() Params {
	if p.MinOverlap < DefaultMinOverlap {
		p.MinOverlap = DefaultMinOverlap
	}
	if p.TopK <= 0 {
		p.TopK = DefaultTopK
	}
	return p
}

// Constants for default values
const (
	// DefaultMinOverlap is the floor on shared dates for a defined coefficient.
	// Below two points a correlation does not exist.
	DefaultMinOverlap = 2

	// DefaultTopK is the ranking depth used when none is requested
	DefaultTopK = 5
)
