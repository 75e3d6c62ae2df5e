// Package ws is the event gateway: it pushes active-tab changes and
// session status transitions to connected shells and streams terminal
// output for attached sessions.
package ws
