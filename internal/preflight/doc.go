// Package preflight validates external service credentials, tool
// availability, and directory permissions before the daemon starts work.
package preflight
