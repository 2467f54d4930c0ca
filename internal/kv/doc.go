// Package kv provides the whole-value key-value backends that hold the
// persisted watch list.
//
// Three backends share the Store interface: SQLite (a single kv_entries
// table, WAL mode, busy retries), a JSON document file written atomically via
// temp file and rename, and an in-memory map for tests. Values are opaque
// bytes; callers always replace a value in full.
//
// File-backed stores also implement Locker, an advisory flock held across a
// read-modify-write so separate processes sharing the same file cannot lose
// each other's updates. The in-process ordering of operations is the caller's
// job.
package kv
