// Package store provides an in-memory membership store used to keep
// duplicate references out of generated playlists.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DedupStore tracks which references have already been admitted. A Bloom
// filter answers the common "never seen" case without touching the map; the
// LRU supplies eviction order once the store is full.
type DedupStore struct {
	refs              map[string]struct{}
	bloom             *bloom.BloomFilter
	lru               *lru.Cache[string, struct{}]
	mutex             sync.RWMutex
	maxRefs           int
	falsePositiveRate float64
}

func NewDedupStore(maxRefs int, falsePositiveRate float64) *DedupStore {
	if maxRefs <= 0 {
		maxRefs = 1
	}
	lruCache, _ := lru.New[string, struct{}](maxRefs)

	return &DedupStore{
		refs:              make(map[string]struct{}),
		bloom:             bloom.NewWithEstimates(uint(maxRefs), falsePositiveRate),
		lru:               lruCache,
		maxRefs:           maxRefs,
		falsePositiveRate: falsePositiveRate,
	}
}

// Has reports whether a reference was already admitted.
func (ds *DedupStore) Has(ref string) bool {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()

	if !ds.bloom.TestString(ref) {
		return false
	}

	_, exists := ds.refs[ref]
	return exists
}

// Add admits a reference. Adding an existing reference is a no-op.
func (ds *DedupStore) Add(ref string) {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if _, exists := ds.refs[ref]; exists {
		return
	}

	ds.refs[ref] = struct{}{}
	ds.bloom.AddString(ref)
	ds.lru.Add(ref, struct{}{})

	if len(ds.refs) > ds.maxRefs {
		ds.evictOldest()
	}
}

// Admit reports whether the reference is new and, when it is, admits it.
// The check and the insert are one critical section so concurrent callers
// cannot both admit the same reference.
func (ds *DedupStore) Admit(ref string) bool {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if ds.bloom.TestString(ref) {
		if _, exists := ds.refs[ref]; exists {
			return false
		}
	}

	ds.refs[ref] = struct{}{}
	ds.bloom.AddString(ref)
	ds.lru.Add(ref, struct{}{})

	if len(ds.refs) > ds.maxRefs {
		ds.evictOldest()
	}
	return true
}

// Load clears the store and admits the given references, dropping empties.
func (ds *DedupStore) Load(refs []string) {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	ds.clear()

	for _, ref := range refs {
		if ref == "" {
			continue
		}
		ds.refs[ref] = struct{}{}
		ds.bloom.AddString(ref)
		ds.lru.Add(ref, struct{}{})
	}

	for len(ds.refs) > ds.maxRefs {
		ds.evictOldest()
	}
}

// Size returns the number of admitted references.
func (ds *DedupStore) Size() int {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()
	return len(ds.refs)
}

// Clear empties the store.
func (ds *DedupStore) Clear() {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	ds.clear()
}

func (ds *DedupStore) clear() {
	ds.refs = make(map[string]struct{})
	ds.bloom = bloom.NewWithEstimates(uint(ds.maxRefs), ds.falsePositiveRate)
	ds.lru.Purge()
}

func (ds *DedupStore) evictOldest() {
	oldest, _, ok := ds.lru.GetOldest()
	if !ok {
		return
	}

	delete(ds.refs, oldest)
	ds.lru.Remove(oldest)
}
