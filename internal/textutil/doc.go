// Package textutil provides token fingerprints and cosine similarity for
// fuzzy title matching.
package textutil
