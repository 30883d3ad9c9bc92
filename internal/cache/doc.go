// Package cache provides a size-bounded LRU for decoded matrix segments.
//
// Entries are weighed by a caller-supplied size in bytes. When a
// resource.Controller is attached, cached bytes are also reserved from its
// memory budget so cached segments and in-flight batches share one limit.
package cache
