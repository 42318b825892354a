// Package telegram wraps the host platform's Bot API: message re-delivery
// for indirect retrieval, file descriptor lookups, and cleanup deletes.
package telegram
