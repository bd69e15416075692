package domain

import "errors"

var (
	// ErrContentUnavailable is returned when a source cannot be rendered or fetched
	ErrContentUnavailable = errors.New("content unavailable")

	// ErrOCRUnavailable is returned when the OCR engine is missing or fails
	ErrOCRUnavailable = errors.New("OCR engine unavailable")

	// ErrAllSourcesExhausted is reported when every source and strategy yielded nothing
	ErrAllSourcesExhausted = errors.New("all sources exhausted without menu items")

	// ErrMalformedCandidate is returned when a candidate fails normalization
	ErrMalformedCandidate = errors.New("malformed candidate")

	// ErrInvalidDescriptor is returned when a restaurant descriptor is unusable
	ErrInvalidDescriptor = errors.New("invalid restaurant descriptor")

	// ErrBudgetExceeded is recorded when the per-restaurant time budget runs out
	ErrBudgetExceeded = errors.New("restaurant time budget exceeded")

	// ErrDiscoveryFailed is returned when the website discovery service fails
	ErrDiscoveryFailed = errors.New("website discovery failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrInvalidDictionary is returned when a classifier dictionary fails validation
	ErrInvalidDictionary = errors.New("invalid classifier dictionary")
)
