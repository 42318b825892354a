// Package resolve composes reference classification, media retrieval, URL
// caching, and identification into single resolve and refresh operations.
package resolve
