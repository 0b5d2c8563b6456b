// Package dataset loads daily price bars from local CSV and XLSX files and
// derives the return series the correlation engine consumes.
//
// Files are discovered by walking a data directory. Column layout is
// detected from the header row, with vendor spellings (ts_code, trade_date,
// pre_close) recognised alongside the generic names; headerless CSV files
// fall back to the vendor dump order. Individual rows or files that fail to
// parse are logged and skipped so one bad export does not sink an analysis.
//
// Returns are simple daily returns, close/prev_close - 1. The vendor
// supplied prev_close is preferred because it carries ex-rights adjustments;
// bars without one fall back to the prior bar's close.
package dataset
