// Package logging provides slog construction helpers and shared
// attribute conventions for cineref components.
package logging
