// Package ledger provides SQLite-backed durable storage for account state.
//
// The store holds two tables:
//   - accounts: one row per live address (lamports, owning program, data)
//   - journal: one row per processed transaction or airdrop, keyed by the
//     runtime's logical sequence number
//
// # Atomicity
//
// Every mutation goes through Update, which runs the caller's closure inside
// a single database transaction. A closure that returns an error rolls back
// every account write it made, so a failed instruction never leaves partial
// state behind.
//
// # Create-if-absent
//
// Writer.Create inserts with ON CONFLICT DO NOTHING and reports
// ErrAccountExists when no row was inserted. Address uniqueness is therefore
// enforced by the primary key, not by a read-then-write race.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
//   - one open connection: SQLite allows a single writer
package ledger
