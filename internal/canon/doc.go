// Package canon provides the canonical byte encodings that identities in the
// ledger are computed from.
//
// Two things live here:
//   - Marshal: RFC 8785 style canonical JSON (sorted keys by UTF-16 code
//     units, NFC-normalized strings, no HTML escaping, no floats, no null)
//   - HashWithDomain: SHA-256 with a domain prefix and a 0x00 separator
//
// Transaction signing payloads and journal entry IDs are both built from
// these functions, so a change in either breaks every stored signature and
// every journal ID. Domain strings carry a version suffix for that reason.
package canon
