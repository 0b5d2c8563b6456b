// Package correlation implements pairwise return correlation analysis for
// stock tickers: series alignment, Pearson and Spearman coefficients, full
// correlation matrices, top-pair ranking, and matrix combination.
//
// # Core Components
//
// The engine is built from five cooperating pieces:
//
//  1. Alignment: strict trade-date intersection of two return series. Dates
//     present on only one side are dropped; nothing is filled or
//     interpolated, so every aligned observation is a real quote on both
//     sides.
//  2. Coefficients: Pearson product-moment with a two-sided p-value from the
//     Student's t distribution, and Spearman via an average-rank transform.
//     Coefficients are clamped to [-1, 1].
//  3. Matrix build: every unordered pair of usable tickers computed
//     independently, tolerating per-ticker fetch failures and per-pair data
//     problems.
//  4. Ranking: deterministic top-K by raw score descending.
//  5. Combination: cell-wise mean of a Pearson and a Spearman matrix.
//
// # Failure Semantics
//
// Partial failure is the normal case with market data, so failures degrade
// the result instead of aborting it:
//
//   - A ticker whose series could not be fetched is excluded from the matrix
//     and recorded in the FetchFailureSet that accompanies every build.
//   - A pair with too few shared trade dates, or with a constant side, gets
//     an undefined cell: score NaN plus a machine-readable reason. The build
//     continues with the remaining pairs.
//   - Only two conditions are fatal: fewer than two usable series, and
//     combining matrices over different ticker sets.
//
// Undefined values are always tagged. A NaN score appears together with its
// reason and Cell.Valid reports definedness; no consumer needs to infer
// meaning from bare NaN arithmetic.
//
// # Architecture
//
//   - types.go: series, pair, and policy types
//   - align.go: trade-date intersection
//   - compute.go: Pearson, Spearman, p-values
//   - matrix.go: matrix type and Builder
//   - rank.go: top-K pair ranking
//   - combine.go: matrix combination
//   - errors.go: failure kinds and sentinels
//
// # Usage Example
//
//	builder := correlation.NewBuilder(correlation.DefaultParams(), slog.Default())
//
//	pearson, failures, err := builder.Build(ctx, set, correlation.MethodPearson)
//	if err != nil {
//	    return err
//	}
//	spearman, _, err := builder.Build(ctx, set, correlation.MethodSpearman)
//	if err != nil {
//	    return err
//	}
//
//	combined, err := correlation.Combine(pearson, spearman)
//	if err != nil {
//	    return err
//	}
//
//	for _, pair := range correlation.RankTopPairs(combined, 5) {
//	    fmt.Printf("%d. %s/%s %.4f\n", pair.Rank, pair.TickerA, pair.TickerB, pair.Score)
//	}
//	for ticker, reason := range failures {
//	    fmt.Printf("skipped %s: %s\n", ticker, reason)
//	}
package correlation
