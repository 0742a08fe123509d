// Package address defines 32-byte ledger addresses and program-derived
// addresses (PDAs).
//
// A PDA is SHA-256 over the seeds, the owning program's address and a fixed
// marker. Only results that do not decode as an ed25519 curve point are
// accepted: such an address has no private key, so the only way to act for
// it is to present its seeds to the runtime on behalf of the owning program.
package address
