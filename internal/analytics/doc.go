// Package analytics is the service layer for correlation analysis. It
// validates request DTOs, resolves return series through a pluggable
// resolver, runs the correlation engine, and assembles report DTOs with
// presentation rounding (coefficients to 4 decimals, p-values to 6).
//
// Undefined statistics surface as nil pointer fields so they serialize as
// JSON null, never as zero. Per-ticker fetch failures are carried on matrix
// reports; only having fewer than two usable series fails an analysis.
package analytics
