// Package reference classifies raw user-supplied content references into
// post links, direct URLs, or uploaded files without touching the network.
package reference
