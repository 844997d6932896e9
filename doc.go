// Package cgtcalc computes capital-gains-tax lot matching for buy and sell
// trades, grouped by instrument code, following identification rules
// resembling the UK HMRC share-matching rules.
//
// The core functionalities include:
//   - Trade Ledger: the ordered, mutable collection of the unmatched trades
//     of one instrument code, consumed by the matching loop.
//   - Matching Engine: deterministic three-tier identification of each
//     disposal against acquisitions — same-day first, then the 30 days
//     following the disposal ("bed and breakfast" rule), then pooled
//     S104-style averaging over all earlier holdings.
//   - Match Groups: one record per settled disposal, exposing its matched
//     tiers and the resulting proceeds, allowable cost, gain or loss,
//     commissions and net profit.
//   - Portfolio Aggregation: tax-year summaries, average commissions and
//     win/loss statistics across every instrument code.
//
// All arithmetic is exact decimal. Matching is a pure deterministic
// computation over fixed input: trades arrive already normalized to the
// reporting currency, and no currency conversion, broker file parsing or
// persistence happens here. This package serves as the foundational logic
// for the `cgt` command-line tool.
package cgtcalc
