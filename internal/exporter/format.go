package exporter

import (
	"fmt"
)

// undefinedValue marks an undefined statistic in CSV and summary output
const undefinedValue = "NA"

// formatScore formats a correlation coefficient with 4 decimal places, so
// values like 0.3 appear as 0.3000 in every column
func formatScore(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

// formatScorePtr formats a possibly undefined coefficient
func formatScorePtr(f *float64) string {
	if f == nil {
		return undefinedValue
	}
	return formatScore(*f)
}

// formatPValue formats a p-value with 6 decimal places
func formatPValue(f *float64) string {
	if f == nil {
		return undefinedValue
	}
	return fmt.Sprintf("%.6f", *f)
}

// formatInt formats an integer for CSV output
func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
