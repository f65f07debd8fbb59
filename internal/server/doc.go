// Package server hosts the Fiber HTTP service and the cache-then-fetch
// request handlers. It wires the request middleware chain (recover, CORS,
// request IDs), applies the same cache→fetch→store template to the raw
// profile and the analysis resource, and normalizes upstream failures into
// the constant {status, detail, extra} body shape. Keep exports narrow and
// accept explicit dependencies so tests can inject stores and fetch doubles.
package server
