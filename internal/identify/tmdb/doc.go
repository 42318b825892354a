// Package tmdb is a minimal client for The Movie Database API covering
// title search and external-id lookup.
package tmdb
