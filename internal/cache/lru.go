package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/subword/internal/resource"
)

// LRU is a size-bounded least recently used cache of float32 vectors.
type LRU struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[string]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key   string
	value []float32
}

func entryBytes(v []float32) int64 { return int64(len(v)) * 4 }

// NewLRU creates a cache holding at most capacity bytes of vector data.
// If rc is non-nil, cached bytes are reserved with it.
func NewLRU(capacity int64, rc *resource.Controller) *LRU {
	return &LRU{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get returns the cached vector for key. The slice must not be modified.
func (c *LRU) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches v under key. The cache retains v; the caller must not
// modify it afterwards.
func (c *LRU) Set(key string, v []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	newSize := entryBytes(v)
	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		oldSize := entryBytes(ent.Value.(*entry).value)
		if newSize > oldSize {
			// Keep the old value if the controller denies the growth.
			if c.rc.AcquireMemory(newSize-oldSize) != nil {
				return
			}
		} else {
			c.rc.ReleaseMemory(oldSize - newSize)
		}
		c.size += newSize - oldSize
		ent.Value.(*entry).value = v
		c.evict()
		return
	}

	if newSize > c.capacity {
		return
	}

	// Evict first so released memory is available to the controller.
	for c.size+newSize > c.capacity {
		ent := c.evictList.Back()
		if ent == nil {
			break
		}
		c.removeElement(ent)
	}

	if c.rc.AcquireMemory(newSize) != nil {
		return
	}

	c.items[key] = c.evictList.PushFront(&entry{key, v})
	c.size += newSize
}

// Purge removes every entry and returns its memory to the controller.
func (c *LRU) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
}

func (c *LRU) evict() {
	for c.size > c.capacity && c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
}

func (c *LRU) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry)
	delete(c.items, kv.key)
	n := entryBytes(kv.value)
	c.size -= n
	c.rc.ReleaseMemory(n)
}

// Stats returns the hit and miss counts.
func (c *LRU) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached vectors.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the cached bytes.
func (c *LRU) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}
