// Package history persists merge-run records in a local SQLite database.
//
// Each completed merge appends one row describing the source and destination
// tables, the mode, item/image counts, and the recomputed digest. The store
// is append-only; rows are never updated after insertion.
package history
