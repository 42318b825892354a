// Package catalog stores locally known films in SQLite and answers fuzzy
// title lookups against them.
package catalog
