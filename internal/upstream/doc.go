// Package upstream implements the HTTP client for the GitHub REST API. It
// exposes a raw JSON fetch plus the typed helpers the aggregation pipeline
// needs (user lookup, repository listing, per-repository language counts).
// Failed calls surface a *StatusError carrying the upstream status and
// headers; transport-level failures carry no status. The client never retries.
package upstream
