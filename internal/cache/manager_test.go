package cache

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func newTestManager(t *testing.T, config *CacheConfig) *CacheManager {
	t.Helper()
	manager, err := NewCacheManager(config, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Failed to create cache manager: %v", err)
	}
	t.Cleanup(func() { manager.Close() }) //nolint:errcheck
	return manager
}

func TestCacheManager_BasicOperations(t *testing.T) {
	manager := newTestManager(t, &CacheConfig{
		MemoryCapacity:   1024,
		DiskCapacity:     10240,
		DiskPath:         t.TempDir(),
		CompressionLevel: 3,
	})

	key := "test-key"
	value := []byte("test-value")

	if err := manager.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	retrieved, ok := manager.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if string(retrieved) != string(value) {
		t.Errorf("Retrieved value mismatch: got %s, want %s", retrieved, value)
	}

	if err := manager.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := manager.Get(key); ok {
		t.Error("Key still exists after delete")
	}
}

func TestCacheManager_MemoryOnly(t *testing.T) {
	manager := newTestManager(t, &CacheConfig{MemoryCapacity: 100})

	if manager.Disk() != nil {
		t.Fatal("disk tier should be disabled without a path")
	}

	manager.Put("a", make([]byte, 60)) //nolint:errcheck
	manager.Put("b", make([]byte, 60)) //nolint:errcheck

	if manager.Contains("a") {
		t.Error("a should be evicted from the memory tier")
	}
	if stats := manager.Stats(); stats.L2 != nil {
		t.Error("L2 stats reported for a disabled tier")
	}
}

func TestCacheManager_PromotesDiskHits(t *testing.T) {
	manager := newTestManager(t, &CacheConfig{
		MemoryCapacity: 100,
		DiskCapacity:   10240,
		DiskPath:       t.TempDir(),
	})

	manager.Put("first", bytes.Repeat([]byte{1}, 80))  //nolint:errcheck
	manager.Put("second", bytes.Repeat([]byte{2}, 80)) //nolint:errcheck

	if manager.Memory().Contains("first") {
		t.Fatal("first should have left the memory tier")
	}

	data, ok := manager.Get("first")
	if !ok {
		t.Fatal("first should be served from disk")
	}
	if !bytes.Equal(data, bytes.Repeat([]byte{1}, 80)) {
		t.Error("disk hit returned wrong data")
	}
	if !manager.Memory().Contains("first") {
		t.Error("disk hit was not promoted to memory")
	}

	stats := manager.Stats()
	if stats.L2Hits != 1 || stats.Promotions != 1 {
		t.Errorf("L2Hits = %d, Promotions = %d, want 1 and 1", stats.L2Hits, stats.Promotions)
	}
}

func TestCacheManager_OversizedIsSilent(t *testing.T) {
	manager := newTestManager(t, &CacheConfig{
		MemoryCapacity: 10,
		DiskCapacity:   10,
		DiskPath:       t.TempDir(),
	})

	if err := manager.Put("big", make([]byte, 100)); err != nil {
		t.Errorf("Put returned %v, want nil", err)
	}
	if manager.Contains("big") {
		t.Error("oversized value was stored")
	}
}

func TestCacheManager_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	config := &CacheConfig{MemoryCapacity: 1024, DiskCapacity: 1 << 20, DiskPath: dir, CompressionLevel: 3}

	first, err := NewCacheManager(config, log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	value := bytes.Repeat([]byte("audio"), 1000)
	first.Put("doc_hash", value) //nolint:errcheck
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := newTestManager(t, config)
	data, ok := second.Get("doc_hash")
	if !ok {
		t.Fatal("entry not found after reopening")
	}
	if !bytes.Equal(data, value) {
		t.Error("reopened entry differs")
	}
}

func TestCacheManager_Clear(t *testing.T) {
	dir := t.TempDir()
	manager := newTestManager(t, &CacheConfig{MemoryCapacity: 1024, DiskCapacity: 10240, DiskPath: filepath.Join(dir, "audio")})

	manager.Put("a", []byte("1")) //nolint:errcheck
	manager.Put("b", []byte("2")) //nolint:errcheck

	if err := manager.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if manager.Contains("a") || manager.Contains("b") {
		t.Error("entries remain after Clear")
	}
	if manager.Disk().Size() != 0 {
		t.Errorf("disk size = %d after Clear", manager.Disk().Size())
	}
}

func TestCacheManager_HitRate(t *testing.T) {
	manager := newTestManager(t, &CacheConfig{MemoryCapacity: 1024})

	manager.Put("a", []byte("1")) //nolint:errcheck
	manager.Get("a")
	manager.Get("missing")

	stats := manager.Stats()
	if stats.TotalHits != 1 || stats.TotalMisses != 1 {
		t.Errorf("hits %d misses %d, want 1 and 1", stats.TotalHits, stats.TotalMisses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("HitRate = %f, want 0.5", stats.HitRate)
	}
}

func TestCacheManager_TierStats(t *testing.T) {
	manager := newTestManager(t, &CacheConfig{
		MemoryCapacity:   1024,
		DiskCapacity:     10240,
		DiskPath:         t.TempDir(),
		CompressionLevel: 3,
	})

	if manager.Disk() == nil {
		t.Fatal("disk tier should be enabled")
	}
	tiers := []Cache{manager.Memory(), manager.Disk()}

	if err := manager.Put("key", []byte("value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	stats := manager.Stats()
	if stats.L1.ItemCount != 1 {
		t.Errorf("L1 items = %d, want 1", stats.L1.ItemCount)
	}
	if stats.L2 == nil || stats.L2.ItemCount != 1 {
		t.Errorf("L2 stats = %+v, want one item", stats.L2)
	}
	if got := tiers[0].Stats(); got.ItemCount != stats.L1.ItemCount {
		t.Errorf("memory tier items = %d, manager reports %d", got.ItemCount, stats.L1.ItemCount)
	}
}
