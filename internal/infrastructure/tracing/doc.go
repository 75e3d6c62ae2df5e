// Package tracing provides request-scoped spans logged through zap.
//
// Every HTTP request gets a request id (minted or taken from
// X-Request-ID) and a span recording its duration, status and tags.
// Spans log synchronously; there is no external exporter, the desktop
// shell reads correlations out of the structured logs.
package tracing
