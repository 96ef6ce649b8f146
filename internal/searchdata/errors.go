package searchdata

import "errors"

var (
	// ErrMalformedIndex indicates a searchData file that cannot be parsed.
	ErrMalformedIndex = errors.New("malformed search index")

	// ErrLocked indicates another generator holds the output directory.
	ErrLocked = errors.New("index output is locked by another build")
)
