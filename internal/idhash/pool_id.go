package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputePoolID computes a deterministic pool identifier using SHA256.
// The pair is canonicalized by sorting the addresses, so (A,B) and (B,A)
// always produce the same ID.
// Formula: SHA256(min(addrA,addrB)|max(addrA,addrB))
// Returns hex-encoded hash (64 characters).
func ComputePoolID(addrA, addrB string) string {
	if addrB < addrA {
		addrA, addrB = addrB, addrA
	}

	data := fmt.Sprintf("%s|%s", addrA, addrB)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
