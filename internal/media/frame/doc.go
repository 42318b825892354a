// Package frame samples single still frames from streamable media URLs
// via ffmpeg for visual cross-referencing.
package frame
