// Package services defines the error taxonomy shared across resolver
// components and context helpers for request correlation.
//
// Leaf components classify upstream failures into the exported sentinel
// markers at their boundary via Wrap; orchestration layers branch on the
// markers with errors.Is and never inspect provider-specific errors.
package services
