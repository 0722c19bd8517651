// Package daemon wires the datastore, reconciliation services, and HTTP API
// into a single-instance background process.
package daemon
