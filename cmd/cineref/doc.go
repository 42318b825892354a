// Command cineref is the CLI for resolving shared film references.
package main
