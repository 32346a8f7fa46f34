// Package metrics provides in-process counters for the service's
// security-relevant operations.
//
// Counters are incremented atomically and are allocation-free on the write
// path. Snapshot returns a name-to-value map that the HTTP layer serves on
// the metrics endpoint. A nil *Metrics is valid and discards everything,
// so callers never guard their increments.
//
// This package performs no I/O and imports no sibling package.
package metrics
