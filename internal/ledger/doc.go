// Package ledger keeps a SQLite history of rebuild runs and the date
// batches they released. The ledger is operator-facing history only; the
// manifest remains the plain-file source of resumability state.
package ledger
