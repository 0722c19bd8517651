// Package egress wraps the external recording backend: the HTTP client for
// starting, listing, and stopping capture jobs, the wire types shared with
// its webhook callbacks, and the phase enumeration both raw status encodings
// resolve into.
package egress
