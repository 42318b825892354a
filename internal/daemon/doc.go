// Package daemon runs the resolver as a single-instance background service
// with an HTTP API.
package daemon
