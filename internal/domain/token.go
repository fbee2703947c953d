package domain

// Token identifies a tradeable data token. Immutable after creation.
type Token struct {
	Address  string // base58-encoded mint address, unique per token
	Symbol   string // display symbol, e.g. "DDX"
	Decimals uint8  // fractional digits used to interpret raw integer amounts
}

// LockedProvider is the sentinel principal that holds the minimum-liquidity
// lock minted on a pool's first deposit. Shares credited to it can never be
// withdrawn, so a funded pool never fully drains.
const LockedProvider = "11111111111111111111111111111111"
