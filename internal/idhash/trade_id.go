package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(pool_id|sequence|trader|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	poolID string,
	sequence uint64,
	trader string,
	timestampMs int64,
) string {
	data := fmt.Sprintf("%s|%d|%s|%d",
		poolID,
		sequence,
		trader,
		timestampMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeEventID computes a deterministic liquidity event id using SHA256.
// Formula: SHA256(pool_id|sequence|provider|event_type)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(
	poolID string,
	sequence uint64,
	provider string,
	eventType string,
) string {
	data := fmt.Sprintf("%s|%d|%s|%s",
		poolID,
		sequence,
		provider,
		eventType,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
