// Package history persists a ledger of split and merge runs in SQLite.
//
// Each run is inserted as "running" when it starts and updated once with its
// final status and unit counts. The CLI history command reads the ledger
// newest first. Writes retry briefly on SQLITE_BUSY so parallel book jobs can
// share one database file.
package history
