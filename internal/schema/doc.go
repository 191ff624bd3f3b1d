// Package schema describes which raw SCADA columns an organization exposes and
// how they are expanded into features.
//
// A Schema is built once per organization with New and never changes after
// that. It records the continuous and boolean sensor columns, an optional
// rename table, the lag offsets (in seconds) and the rolling window sizes (in
// samples), plus the target and timestamp columns that must never be treated
// as features.
//
// # Naming contract
//
// AllFeatureNames enumerates the base, lag and rolling features for every
// continuous column in declared order, followed by the boolean columns. The
// feature generators build their column names with the helpers in names.go, so
// the enumeration and the generated table always agree.
//
// # Renaming
//
// Resolve applies the rename table once. The table is rejected when a mapped
// name is itself a key (renaming would not be idempotent) or when two raw
// columns map to the same name.
package schema
