package supplemental

import "errors"

// Sentinel errors for table loading.
var (
	ErrMalformedTable = errors.New("malformed supplemental table")
	ErrNoSource       = errors.New("no supplemental table source")
)
