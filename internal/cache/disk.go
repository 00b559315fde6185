package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const indexFile = "cache.index"

// DiskCache implements an L2 disk cache with optional zstd compression.
// Entries persist across runs and are evicted in insertion order once the
// compressed size exceeds the capacity.
type DiskCache struct {
	basePath string
	capacity int64 // Maximum size on disk in bytes
	size     int64 // Current size on disk in bytes
	nextSeq  uint64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskCacheEntry

	mu sync.RWMutex

	stats CacheStats
}

// diskCacheEntry represents an entry in the disk cache index
type diskCacheEntry struct {
	Key          string
	FilePath     string
	Seq          uint64 // Insertion order
	Size         int64  // Size on disk
	OriginalSize int64
	Timestamp    time.Time
	Compressed   bool
}

// NewDiskCache creates a new disk cache with the specified path and capacity.
// A compression level of 0 stores entries uncompressed.
func NewDiskCache(basePath string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if capacity <= 0 {
		capacity = DefaultDiskCapacity
	}

	dc := &DiskCache{
		basePath: basePath,
		capacity: capacity,
		index:    make(map[string]*diskCacheEntry),
		stats: CacheStats{
			Level:    CacheLevelL2,
			Capacity: capacity,
		},
	}

	if compressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}

	// Entries written with compression must stay readable after the level
	// is set to 0, so the decoder always exists.
	var err error
	dc.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	if err := dc.loadIndex(); err != nil {
		// Non-fatal: start with an empty index
		dc.index = make(map[string]*diskCacheEntry)
	}
	dc.recalculate()

	return dc, nil
}

// Get retrieves a value from the disk cache.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.stats.LastAccess = time.Now()

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.FilePath)
	if err == nil && entry.Compressed {
		data, err = dc.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		// Missing or corrupted file
		dc.removeEntry(entry)
		dc.stats.Misses++
		return nil, false
	}

	dc.stats.Hits++
	return data, true
}

// Put stores a value in the disk cache. A value whose stored form exceeds
// the capacity is rejected with ErrItemTooLarge.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	originalSize := int64(len(value))

	data := value
	var compressed bool
	if dc.encoder != nil && originalSize > 1024 { // Only compress if > 1KB
		if c := dc.encoder.EncodeAll(value, nil); len(c) < len(value) {
			data = c
			compressed = true
		}
	}
	diskSize := int64(len(data))

	if diskSize > dc.capacity {
		dc.stats.Rejected++
		return ErrItemTooLarge
	}

	if existing, ok := dc.index[key]; ok {
		dc.removeEntry(existing)
	}

	for dc.size+diskSize > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	filePath := dc.filePath(key)
	if err := writeFileAtomic(filePath, data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	dc.index[key] = &diskCacheEntry{
		Key:          key,
		FilePath:     filePath,
		Seq:          dc.nextSeq,
		Size:         diskSize,
		OriginalSize: originalSize,
		Timestamp:    time.Now(),
		Compressed:   compressed,
	}
	dc.nextSeq++
	dc.size += diskSize

	return dc.saveIndex()
}

// Delete removes an entry from the disk cache.
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		return nil
	}
	dc.removeEntry(entry)
	return dc.saveIndex()
}

// Clear removes all entries from the disk cache.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for _, entry := range dc.index {
		os.Remove(entry.FilePath) //nolint:errcheck
	}
	dc.index = make(map[string]*diskCacheEntry)
	dc.size = 0
	dc.nextSeq = 0

	return dc.saveIndex()
}

// Size returns the current cache size on disk in bytes.
func (dc *DiskCache) Size() int64 {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	return dc.size
}

// Contains checks if a key exists in the cache.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	_, ok := dc.index[key]
	return ok
}

// Keys returns all keys from oldest to newest.
func (dc *DiskCache) Keys() []string {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	entries := dc.ordered()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Path returns the cache directory.
func (dc *DiskCache) Path() string {
	return dc.basePath
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() CacheStats {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	stats := dc.stats
	stats.Size = dc.size
	stats.ItemCount = int64(len(dc.index))
	stats.HitRate = hitRate(stats)

	return stats
}

// Close saves the index and releases the codec resources.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	err := dc.saveIndex()
	if dc.encoder != nil {
		err = errors.Join(err, dc.encoder.Close())
	}
	dc.decoder.Close()
	return err
}

// Private helper methods

func (dc *DiskCache) filePath(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(dc.basePath, hex.EncodeToString(hash[:16])+".cache")
}

// ordered returns the entries sorted by insertion order (lock held).
func (dc *DiskCache) ordered() []*diskCacheEntry {
	entries := make([]*diskCacheEntry, 0, len(dc.index))
	for _, e := range dc.index {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	return entries
}

func (dc *DiskCache) evictOldest() {
	var oldest *diskCacheEntry
	for _, e := range dc.index {
		if oldest == nil || e.Seq < oldest.Seq {
			oldest = e
		}
	}
	if oldest != nil {
		dc.removeEntry(oldest)
		dc.stats.Evictions++
		dc.stats.LastEvict = time.Now()
	}
}

func (dc *DiskCache) removeEntry(entry *diskCacheEntry) {
	os.Remove(entry.FilePath) //nolint:errcheck
	delete(dc.index, entry.Key)
	dc.size -= entry.Size
}

func (dc *DiskCache) recalculate() {
	dc.size = 0
	dc.nextSeq = 0
	for _, e := range dc.index {
		dc.size += e.Size
		if e.Seq >= dc.nextSeq {
			dc.nextSeq = e.Seq + 1
		}
	}
}

func (dc *DiskCache) loadIndex() error {
	file, err := os.Open(filepath.Join(dc.basePath, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close() //nolint:errcheck

	return gob.NewDecoder(file).Decode(&dc.index)
}

func (dc *DiskCache) saveIndex() error {
	path := filepath.Join(dc.basePath, indexFile)
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	err = gob.NewEncoder(file).Encode(dc.index)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath) //nolint:errcheck
		return err
	}

	return os.Rename(tempPath, path)
}

// writeFileAtomic writes to a temp file first, then renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		os.Remove(tempPath) //nolint:errcheck
		return err
	}
	return os.Rename(tempPath, path)
}
