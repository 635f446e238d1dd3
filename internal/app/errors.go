package service

import "errors"

// Sentinel errors for the service.
var (
	ErrNotStarted = errors.New("service not started")
	ErrNoFetcher  = errors.New("no season fetcher for snapshot builds")
)
