// Package config loads, validates, and normalizes cineref configuration
// from a TOML file with environment variable fallbacks for credentials.
package config
