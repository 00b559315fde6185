package cache

import (
	"bytes"
	"fmt"
	"os"
	"testing"
)

func TestDiskCache_BasicOperations(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 3)
	if err != nil {
		t.Fatalf("Failed to create disk cache: %v", err)
	}
	defer dc.Close() //nolint:errcheck

	value := bytes.Repeat([]byte("compressible audio "), 500)
	if err := dc.Put("key", value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := dc.Get("key")
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if !bytes.Equal(got, value) {
		t.Error("round trip through disk changed the data")
	}

	if dc.Size() >= int64(len(value)) {
		t.Errorf("compressed size %d not smaller than %d", dc.Size(), len(value))
	}

	if err := dc.Delete("key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if dc.Contains("key") || dc.Size() != 0 {
		t.Error("entry remains after Delete")
	}
}

func TestDiskCache_FIFOEviction(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close() //nolint:errcheck

	for i := 0; i < 4; i++ {
		if err := dc.Put(fmt.Sprintf("key-%d", i), make([]byte, 30)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		// Reads do not change eviction order.
		dc.Get("key-0")
	}

	if dc.Contains("key-0") {
		t.Error("key-0 should be evicted first")
	}
	keys := dc.Keys()
	want := []string{"key-1", "key-2", "key-3"}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Errorf("Keys() = %v, want %v", keys, want)
	}
}

func TestDiskCache_ItemTooLarge(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close() //nolint:errcheck

	if err := dc.Put("big", make([]byte, 11)); err != ErrItemTooLarge {
		t.Errorf("Put error = %v, want ErrItemTooLarge", err)
	}
}

func TestDiskCache_MissingFile(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close() //nolint:errcheck

	dc.Put("key", []byte("value")) //nolint:errcheck
	os.Remove(dc.filePath("key"))  //nolint:errcheck

	if _, ok := dc.Get("key"); ok {
		t.Error("Get succeeded for a deleted file")
	}
	if dc.Contains("key") || dc.Size() != 0 {
		t.Error("stale entry not dropped from the index")
	}
}

func TestDiskCache_ReopenKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	dc.Put("a", make([]byte, 40)) //nolint:errcheck
	dc.Put("b", make([]byte, 40)) //nolint:errcheck
	dc.Close()                    //nolint:errcheck

	reopened, err := NewDiskCache(dir, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close() //nolint:errcheck

	if reopened.Size() != 80 {
		t.Errorf("Size = %d after reopen, want 80", reopened.Size())
	}
	reopened.Put("c", make([]byte, 40)) //nolint:errcheck
	if reopened.Contains("a") {
		t.Error("a should be evicted first after reopening")
	}
	if !reopened.Contains("b") || !reopened.Contains("c") {
		t.Error("b and c should be cached")
	}
}
