package model

import "errors"

// Sentinel kinds shared by data sources.
var (
	// ErrNoRecord reports that a source has no identity or season record
	// for the requested key.
	ErrNoRecord = errors.New("no record")
)
