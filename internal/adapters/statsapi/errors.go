package statsapi

import "errors"

// Sentinel errors for the stats API client.
var (
	// ErrUpstream marks a request the remote service did not answer
	// successfully.
	ErrUpstream = errors.New("stats api unavailable")
	// ErrDecode marks a response body that is not the expected JSON.
	ErrDecode = errors.New("stats api response malformed")
)
