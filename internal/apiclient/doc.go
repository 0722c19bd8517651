// Package apiclient is the CLI-side client for the daemon's HTTP API.
package apiclient
