package idhash

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ValidateTokenAddress checks that addr is a base58-encoded 32-byte key,
// the canonical mint address format. Returns the decoded bytes.
func ValidateTokenAddress(addr string) ([]byte, error) {
	if addr == "" {
		return nil, fmt.Errorf("empty token address")
	}

	decoded, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("decode token address: %w", err)
	}
	if len(decoded) != 32 {
		return nil, fmt.Errorf("token address must be 32 bytes, got %d", len(decoded))
	}

	return decoded, nil
}

// IsOnCurve reports whether a validated 32-byte address is a point on the
// ed25519 curve. Wallet-held mints are on-curve; program-derived mints are
// not, which is informational for callers registering tokens.
func IsOnCurve(decoded []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
