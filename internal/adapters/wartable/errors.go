package wartable

import "errors"

// Sentinel errors for table sources.
var (
	ErrFetchTable = errors.New("fetch war table")
	ErrNoBucket   = errors.New("s3 bucket is required")
)
