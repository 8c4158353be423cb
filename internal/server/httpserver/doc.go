// Package httpserver exposes the sync API over HTTP.
//
// Requests pass through a fixed chain: recovery, CORS, tracing, metrics,
// request logging, a request deadline and the version headers apply to
// every route; the item routes add bearer authentication, a per-user rate
// limit and tenant resolution, which puts the profile's datastore on the
// request context.
package httpserver
