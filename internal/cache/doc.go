// Package cache defines the TTL key-value store that backs the cache-then-fetch
// protocol. Two backends share one Store interface: an in-process map with
// per-entry expiry for single-instance deployments and tests, and a Redis
// client for shared deployments. Handlers depend on this
// package so that a backend failure on Get degrades to a miss and a failure on
// Set never fails the request.
package cache
