// Package observability builds the per-run diagnostic snapshot (spec
// §4.10): per-source null-field rates, chain aggregates, and alert
// aggregates, computed once at the end of a batch run from the same
// events/rows/alerts the rest of the pipeline produced — no tracing
// exporter, no metrics server, just a summary for a log line or a
// dashboard query to pick up.
package observability
