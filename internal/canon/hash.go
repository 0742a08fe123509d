package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes. The version suffix allows a future algorithm migration
// without colliding with IDs computed under the old one.
const (
	DomainMessage = "pdavault/message/v1"
	DomainJournal = "pdavault/journal/v1"
)

// Sum computes SHA256(domain + 0x00 + data).
// The null separator keeps the domain/data boundary unambiguous.
func Sum(domain string, data []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HashWithDomain is Sum rendered as lowercase hex.
func HashWithDomain(domain string, data []byte) string {
	sum := Sum(domain, data)
	return hex.EncodeToString(sum[:])
}

// HashValue canonically marshals v and hashes it under domain.
func HashValue(domain string, v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return HashWithDomain(domain, b), nil
}
