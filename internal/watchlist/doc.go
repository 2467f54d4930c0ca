// Package watchlist owns the persisted list of tracked TV series.
//
// The whole list lives as one JSON array under a single key in a kv.Store.
// Every operation loads the entire list, works on an in-memory copy, and
// writes the entire list back when something changed. Operations on a Store
// are serialized by a mutex, and backends implementing kv.Locker are also
// locked for the duration of a mutation, so concurrent callers cannot lose
// each other's updates.
//
// Failures are typed: ValidationError, NotFoundError, CorruptDataError and
// StorageError. Each reports ErrorKind() and matches its sentinel with
// errors.Is.
package watchlist
