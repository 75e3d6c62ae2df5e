// Package middleware provides the HTTP middleware stack: CORS for the
// desktop shell's origin and per-IP token bucket rate limiting.
package middleware
