// Package api defines the JSON payload shapes shared by the HTTP server and
// the CLI client.
package api
