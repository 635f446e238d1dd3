package search

import "errors"

// Sentinel errors for searches.
var (
	// ErrQueryUnavailable wraps any failure to load the query player's
	// identity or season record.
	ErrQueryUnavailable = errors.New("query unavailable")
	// ErrSeasonFetch wraps a failed corpus season fetch.
	ErrSeasonFetch = errors.New("season fetch failed")
)
