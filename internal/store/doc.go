// Package store provides SQLite-backed storage for the variant store:
// the dynamic schema built from the field catalog, row ingest,
// materialized selections, word sets, and query execution.
//
// The dynamic tables (variant, annotation, one genotype table per
// sample) take their columns from the catalog at runtime; only the
// support tables (fields, samples, selections, wordsets, metadata)
// have a static schema.
//
// The store assumes a single logical writer. The connection is
// configured with WAL mode and a single open connection; callers that
// write from several goroutines must serialize among themselves.
package store
