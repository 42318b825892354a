// Package mediaurl caches time-limited durable URLs keyed by media handle,
// collapsing concurrent resolutions of the same handle into one platform
// call and offering unconditional refresh for playback-failure recovery.
package mediaurl
