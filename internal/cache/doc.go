// Package cache stores generated audio. It includes a bounded in-memory cache
// (L1) with first-in first-out eviction and an optional compressed disk cache
// (L2) that persists audio across runs.
package cache
