package domain

import "errors"

var (
	// ErrSizeParse is returned when a size token has no parseable numeric value
	ErrSizeParse = errors.New("size token has no parseable numeric value")

	// ErrLineParse is returned when a pasted inventory line does not match the expected format
	ErrLineParse = errors.New("line does not match pasted inventory format")

	// ErrEmptyInventory is returned when parsing produces zero usable items
	ErrEmptyInventory = errors.New("no parseable inventory lines")

	// ErrSourceUnavailable is returned when a marketplace API cannot be reached
	ErrSourceUnavailable = errors.New("marketplace source unavailable")

	// ErrRateLimited signals an HTTP 429 from a marketplace; the executor retries these
	ErrRateLimited = errors.New("rate limited by marketplace")

	// ErrRateLimitExceeded is returned when rate-limit retries are exhausted
	ErrRateLimitExceeded = errors.New("rate limit retries exhausted")

	// ErrProductNotFound is returned when no catalog product matches a query
	ErrProductNotFound = errors.New("product not found in marketplace catalog")

	// ErrVariantNotFound is returned when a product has no size variant for the requested size in any category
	ErrVariantNotFound = errors.New("no size variant found for product")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
