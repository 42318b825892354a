// Package identify runs the staged film identification pipeline: local
// catalog lookup, then metadata search, then visual cross-reference.
package identify
