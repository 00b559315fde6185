package cache

import (
	"errors"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when the size accounting does not match
	// the stored entries
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Default capacities.
const (
	DefaultMemoryCapacity   int64 = 100 * 1024 * 1024  // 100MB
	DefaultDiskCapacity     int64 = 1024 * 1024 * 1024 // 1GB
	DefaultCompressionLevel       = 3
)

// CacheLevel represents the cache tier
type CacheLevel int

const (
	// CacheLevelL1 represents the memory cache (fastest)
	CacheLevelL1 CacheLevel = iota

	// CacheLevelL2 represents the disk cache (persistent)
	CacheLevelL2
)

// String returns the string representation of the cache level
func (l CacheLevel) String() string {
	switch l {
	case CacheLevelL1:
		return "L1-Memory"
	case CacheLevelL2:
		return "L2-Disk"
	default:
		return "Unknown"
	}
}

// CacheStats holds cache metrics
type CacheStats struct {
	Level    CacheLevel
	Capacity int64 // Maximum capacity in bytes

	// Current state
	Size      int64 // Current size in bytes
	ItemCount int64 // Number of items in cache

	Hits      int64
	Misses    int64
	Evictions int64
	Rejected  int64   // Items larger than the capacity
	HitRate   float64 // hits / (hits + misses)

	LastAccess time.Time
	LastEvict  time.Time
}

// CacheConfig holds configuration for the cache manager
type CacheConfig struct {
	// Memory cache (L1)
	MemoryCapacity int64 // Bytes

	// Disk cache (L2), disabled when DiskPath is empty or DiskCapacity is 0
	DiskCapacity     int64  // Bytes
	DiskPath         string // Directory for cache files
	CompressionLevel int    // Zstd compression level (1-22, 0 disables compression)
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MemoryCapacity:   DefaultMemoryCapacity,
		DiskCapacity:     DefaultDiskCapacity,
		CompressionLevel: DefaultCompressionLevel,
	}
}

// Cache defines the interface shared by the cache tiers
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error

	Size() int64
	Contains(key string) bool
	Keys() []string

	Stats() CacheStats
}

func hitRate(s CacheStats) float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}
