package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainPendingOrder separates mailbox fingerprints from any other hash
// cafesync might compute. Bump the suffix if the encoding changes.
const DomainPendingOrder = "cafesync/pending-order/v1"

// hashWithDomain returns hex(SHA-256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	buf := make([]byte, 0, len(domain)+1+len(data))
	buf = append(buf, domain...)
	buf = append(buf, 0)
	buf = append(buf, data...)
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns a content hash of a pending order. Mailbox entries have
// no remote id yet, so history entries are keyed by this value.
//
// encoding/json emits struct fields in declaration order, which makes the
// output stable for a given PendingOrder.
func Fingerprint(p PendingOrder) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainPendingOrder, data), nil
}
