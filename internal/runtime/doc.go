// Package runtime is the host that programs execute inside.
//
// It owns everything a program must not do for itself: verifying
// transaction signatures, charging fees, allocating rent-exempt accounts,
// moving lamports between addresses, and committing or discarding all of a
// transaction's effects at once.
//
// Thread-safety model:
//   - Process and Airdrop serialize on one mutex; at most one transaction
//     mutates the ledger at a time
//   - read helpers (Balance, Account) go straight to the ledger and may run
//     concurrently with processing
//
// Authority model: Transfer debits an address only if that address signed
// the transaction, or if the calling program presents seeds that derive it
// (address.CreateProgramAddress with the program's own ID). The second form
// is how a program acts for an account no private key controls.
package runtime
