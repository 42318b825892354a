// Package deps checks the external binaries the resolver shells out to.
package deps
