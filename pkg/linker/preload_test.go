package linker

import "testing"

func TestPreloadCacheTakeMissReturnsNil(t *testing.T) {
	c := NewPreloadCache()
	f := &File{Name: "a.o", Size: 10, ModTime: 1}
	if got := c.Take(f); got != nil {
		t.Errorf("Take on an empty cache = %v, want nil", got)
	}
}

func TestPreloadCacheStoreThenTakeRoundTrips(t *testing.T) {
	c := NewPreloadCache()
	f := &File{Name: "a.o", Size: 10, ModTime: 1}
	obj := &ObjectFile{}
	obj.File = f

	c.Store(obj)

	got := c.Take(f)
	if got != obj {
		t.Fatalf("Take() = %v, want the stored ObjectFile", got)
	}

	if got := c.Take(f); got != nil {
		t.Error("a second Take for the same key should consume the entry and return nil")
	}
}

// TestPreloadCacheKeyIncludesSizeAndModTime checks that a file with the
// same name but a different size or mtime doesn't match a stored entry
// (the cache is keyed on (name, size, mtime), not content).
func TestPreloadCacheKeyIncludesSizeAndModTime(t *testing.T) {
	c := NewPreloadCache()
	stored := &File{Name: "a.o", Size: 10, ModTime: 1}
	obj := &ObjectFile{}
	obj.File = stored
	c.Store(obj)

	differentSize := &File{Name: "a.o", Size: 11, ModTime: 1}
	if got := c.Take(differentSize); got != nil {
		t.Error("a different size should miss the cache")
	}

	differentMTime := &File{Name: "a.o", Size: 10, ModTime: 2}
	if got := c.Take(differentMTime); got != nil {
		t.Error("a different mtime should miss the cache")
	}

	if got := c.Take(stored); got != obj {
		t.Error("the originally stored entry should still be there")
	}
}

// TestPreloadCacheMultipleEntriesSameKey checks the cache holds a FIFO
// list per key rather than overwriting on Store.
func TestPreloadCacheMultipleEntriesSameKey(t *testing.T) {
	c := NewPreloadCache()
	f := &File{Name: "a.o", Size: 10, ModTime: 1}
	first := &ObjectFile{}
	first.File = f
	second := &ObjectFile{}
	second.File = f

	c.Store(first)
	c.Store(second)

	if got := c.Take(f); got != first {
		t.Error("Take should return entries in the order they were stored")
	}
	if got := c.Take(f); got != second {
		t.Error("Take should return the second stored entry after the first is consumed")
	}
}
