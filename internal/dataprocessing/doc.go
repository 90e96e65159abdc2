// Package dataprocessing implements the deal analytics pipeline: monetary
// value normalization, quarter key resolution, filter composition, and
// group-by aggregation over deal records.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Value Normalizer: converts heterogeneous amount cells into domain.Amount
// 2. Quarter Key Resolver: extracts sortable domain.PeriodKey values
// 3. Aggregator: per-group totals, counts, and top-N rankings
// 4. Summarizer: KPI-card summaries composed from the above
//
// # Data Flow
//
//	DealRecords → Normalize (per cell) → Aggregate (per group) → presentation
//
// Every function here is a pure, single-pass transformation over its input
// sequence. Nothing holds state, performs I/O, or mutates the records it is
// given, so concurrent callers need no synchronization.
//
// # Error Handling
//
// The error policy is deliberately fail-soft: malformed amounts degrade to
// the Undisclosed marker and malformed quarters resolve to UnknownPeriod.
// No input, however broken, aborts an aggregation over thousands of rows.
package dataprocessing
