// Package resilience provides the circuit breaker guarding terminal
// backend connects.
//
// Each connection kind gets its own Breaker. Consecutive connect failures
// open it, rejecting further attempts until a cooldown passes; a limited
// number of probes then test the backend, and a single success closes it
// again. An unreachable jump host stops burning connect timeouts without
// affecting local terminals.
package resilience
