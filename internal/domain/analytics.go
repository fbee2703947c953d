package domain

// PoolVolumeWindow aggregates trade activity for one pool over a time
// window.
type PoolVolumeWindow struct {
	PoolID    string
	Trades    uint64
	VolumeIn  uint64
	VolumeOut uint64
	Fees      uint64
}
