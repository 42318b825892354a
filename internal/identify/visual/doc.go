// Package visual queries a reverse-image-search provider with sampled
// frames to cross-reference unidentified media.
package visual
