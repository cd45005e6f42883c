// Package store archives workload reports in SQLite.
//
// Each call to Archive records one run: a UUIDv7 id, a logical seq and the
// planner and report versions, plus one row per workload report holding its
// canonical JSON body, its fingerprint and the fingerprint of the
// declaration it was built from.
//
// Runs are ordered by their seq column, never by wall-clock time. Every
// multi-row read sorts by seq and then by workload name under BINARY
// collation, so two reads of the same archive return identical sequences.
//
// Connections run in WAL mode with a single writer; see archivePragmas for
// the full set of settings. Archives written by older builds are upgraded
// on Open through the migrations table, tracked in PRAGMA user_version.
//
// Fingerprints come from internal/ir and are recomputed on read, so a body
// edited behind the archive's back surfaces as ErrIntegrity.
package store
