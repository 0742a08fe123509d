// Package vault is a custody program: each owner gets a record account and
// a vault account at addresses derived from the owner's key, so that funds
// in the vault can only leave through this program's logic.
//
// Addresses:
//   - state: derived from ("state", owner). Holds the 2-byte Record.
//   - vault: derived from ("vault", state). Holds lamports only.
//
// Both bumps are stored in the Record at initialize and re-validated on
// every later instruction. Deposits move funds on the owner's signature.
// Withdrawals and close move funds out of the vault by presenting the
// vault seeds plus the stored bump to the runtime in place of a signature.
//
// The instruction set is initialize, deposit(u64), withdraw(u64) and close.
// The owner is always the first account and must sign.
package vault
