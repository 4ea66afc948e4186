package domain

import "errors"

var (
	// ErrCatalogLoad is returned when the catalog source cannot be loaded or
	// fails validation. The catalog is never partially populated.
	ErrCatalogLoad = errors.New("catalog load failed")

	// ErrProductNotFound is returned when a product name is not in the catalog.
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrGuardUnavailable is returned when a guard backend cannot be reached.
	// The guard fails closed: this rejects the request, it never passes it.
	ErrGuardUnavailable = errors.New("input guard unavailable")

	// ErrBackendFailure is returned when a backend call fails after retries.
	ErrBackendFailure = errors.New("text-generation backend request failed")

	// ErrInvalidRequest is returned when request parameters are invalid.
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrMalformedVerdict is returned when the reference evaluator emits a
	// letter outside the closed A-E protocol.
	ErrMalformedVerdict = errors.New("malformed evaluation verdict")

	// ErrCacheMiss is returned when data is not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache service is unavailable.
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
