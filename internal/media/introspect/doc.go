// Package introspect extracts media metadata from direct URLs via yt-dlp
// without downloading the payload.
package introspect
