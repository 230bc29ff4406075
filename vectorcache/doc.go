// Package vectorcache provides a durable read-through cache for item
// embeddings, keyed by item and model so re-runs never recompute a
// vector that already exists.
package vectorcache
