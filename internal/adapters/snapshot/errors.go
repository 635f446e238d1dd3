package snapshot

import "errors"

// Sentinel errors for snapshots.
var (
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrNoSeasons       = errors.New("no seasons to build")
)
