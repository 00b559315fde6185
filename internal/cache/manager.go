package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
)

// CacheManager combines the memory cache with an optional disk cache.
// Reads check L1 then L2 and promote L2 hits into L1. Writes go to both
// tiers synchronously; store failures are logged and otherwise ignored.
type CacheManager struct {
	l1Memory *MemoryCache
	l2Disk   *DiskCache // nil when disabled

	logger *log.Logger

	mu    sync.RWMutex
	stats struct {
		TotalHits   int64
		TotalMisses int64
		L1Hits      int64
		L2Hits      int64
		Promotions  int64
	}
}

// ManagerStats aggregates the statistics of all tiers.
type ManagerStats struct {
	TotalHits   int64
	TotalMisses int64
	HitRate     float64
	L1Hits      int64
	L2Hits      int64
	Promotions  int64

	L1 CacheStats
	L2 *CacheStats // nil when the disk cache is disabled
}

// NewCacheManager creates a new cache manager with the specified
// configuration. A "~" prefix in the disk path is expanded to the home
// directory.
func NewCacheManager(config *CacheConfig, logger *log.Logger) (*CacheManager, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}
	if logger == nil {
		logger = log.Default()
	}

	cm := &CacheManager{
		l1Memory: NewMemoryCache(config.MemoryCapacity),
		logger:   logger,
	}

	if config.DiskPath != "" && config.DiskCapacity > 0 {
		path, err := homedir.Expand(config.DiskPath)
		if err != nil {
			return nil, fmt.Errorf("failed to expand cache path: %w", err)
		}
		cm.l2Disk, err = NewDiskCache(path, config.DiskCapacity, config.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
	}

	return cm, nil
}

// Get retrieves a value from the cache hierarchy.
func (cm *CacheManager) Get(key string) ([]byte, bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if data, ok := cm.l1Memory.Get(key); ok {
		cm.stats.L1Hits++
		cm.stats.TotalHits++
		return data, true
	}

	if cm.l2Disk != nil {
		if data, ok := cm.l2Disk.Get(key); ok {
			cm.stats.L2Hits++
			cm.stats.TotalHits++
			cm.promoteToL1(key, data)
			return data, true
		}
	}

	cm.stats.TotalMisses++
	return nil, false
}

// Put stores a value in every tier. It never fails: a tier that cannot
// store the value is skipped.
func (cm *CacheManager) Put(key string, value []byte) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	// MemoryCache.Put never fails.
	_ = cm.l1Memory.Put(key, value)

	if cm.l2Disk != nil {
		if err := cm.l2Disk.Put(key, value); err != nil {
			cm.logger.Debug("Disk cache store skipped", "key", key, "bytes", len(value), "err", err)
		}
	}
	return nil
}

// Delete removes an entry from all tiers.
func (cm *CacheManager) Delete(key string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	err := cm.l1Memory.Delete(key)
	if cm.l2Disk != nil {
		if dErr := cm.l2Disk.Delete(key); dErr != nil {
			err = errors.Join(err, fmt.Errorf("L2 delete: %w", dErr))
		}
	}
	return err
}

// Clear removes all entries from all tiers.
func (cm *CacheManager) Clear() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	err := cm.l1Memory.Clear()
	if cm.l2Disk != nil {
		if dErr := cm.l2Disk.Clear(); dErr != nil {
			err = errors.Join(err, fmt.Errorf("L2 clear: %w", dErr))
		}
	}
	return err
}

// ClearMemory removes all entries from the memory tier only.
func (cm *CacheManager) ClearMemory() error {
	return cm.l1Memory.Clear()
}

// Contains reports whether any tier holds key.
func (cm *CacheManager) Contains(key string) bool {
	if cm.l1Memory.Contains(key) {
		return true
	}
	return cm.l2Disk != nil && cm.l2Disk.Contains(key)
}

// Size returns the size of the memory tier in bytes.
func (cm *CacheManager) Size() int64 {
	return cm.l1Memory.Size()
}

// Keys returns the keys of the memory tier from oldest to newest.
func (cm *CacheManager) Keys() []string {
	return cm.l1Memory.Keys()
}

// Memory returns the memory tier.
func (cm *CacheManager) Memory() *MemoryCache {
	return cm.l1Memory
}

// Disk returns the disk tier, or nil when it is disabled.
func (cm *CacheManager) Disk() *DiskCache {
	return cm.l2Disk
}

// Verify checks the size accounting of the memory tier.
func (cm *CacheManager) Verify() error {
	return cm.l1Memory.Verify()
}

// Stats returns aggregated statistics from all tiers.
func (cm *CacheManager) Stats() ManagerStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	s := ManagerStats{
		TotalHits:   cm.stats.TotalHits,
		TotalMisses: cm.stats.TotalMisses,
		L1Hits:      cm.stats.L1Hits,
		L2Hits:      cm.stats.L2Hits,
		Promotions:  cm.stats.Promotions,
		L1:          cm.l1Memory.Stats(),
	}
	if total := s.TotalHits + s.TotalMisses; total > 0 {
		s.HitRate = float64(s.TotalHits) / float64(total)
	}
	if cm.l2Disk != nil {
		l2 := cm.l2Disk.Stats()
		s.L2 = &l2
	}
	return s
}

// Close saves the disk index.
func (cm *CacheManager) Close() error {
	if cm.l2Disk == nil {
		return nil
	}
	if err := cm.l2Disk.Close(); err != nil {
		return fmt.Errorf("failed to close disk cache: %w", err)
	}
	return nil
}

// promoteToL1 copies an L2 hit into the memory tier (lock held).
func (cm *CacheManager) promoteToL1(key string, data []byte) {
	cm.stats.Promotions++
	_ = cm.l1Memory.Put(key, data)
}

var _ Cache = (*MemoryCache)(nil)
var _ Cache = (*DiskCache)(nil)
