// Package inventory loads named connection targets from a YAML file so
// multi-host launches can reference hosts and groups by name.
package inventory
