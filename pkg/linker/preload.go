package linker

import "sync"

// preloadKey identifies a file the way the warm-start cache does: by
// name, size, and modification time, not content (spec §4.1's "preload
// cache"). See DESIGN.md's Open Question entry for why this is kept as
// the documented risk the source accepts rather than strengthened to a
// content hash.
type preloadKey struct {
	name    string
	size    int64
	modTime int64
}

// PreloadCache holds already-parsed ObjectFiles across link
// invocations sharing a process (spec §6's -preload warm-start mode).
// A lookup consumes the entry: once the real link reuses a cached
// file, a second request for the same key parses fresh rather than
// handing out a file two links are mutating concurrently.
type PreloadCache struct {
	mu      sync.Mutex
	entries map[preloadKey][]*ObjectFile
}

func NewPreloadCache() *PreloadCache {
	return &PreloadCache{entries: make(map[preloadKey][]*ObjectFile)}
}

func keyOf(file *File) preloadKey {
	return preloadKey{name: file.Name, size: file.Size, modTime: file.ModTime}
}

// Store records a freshly parsed ObjectFile under its file's key, for a
// later real link to consume.
func (c *PreloadCache) Store(obj *ObjectFile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := keyOf(obj.File)
	c.entries[k] = append(c.entries[k], obj)
}

// Take returns and removes a previously stored ObjectFile matching
// file's (name, size, mtime), or nil if the cache has nothing for it.
func (c *PreloadCache) Take(file *File) *ObjectFile {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := keyOf(file)
	list := c.entries[k]
	if len(list) == 0 {
		return nil
	}

	obj := list[0]
	c.entries[k] = list[1:]
	return obj
}
