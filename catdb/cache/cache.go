package cache

import (
	"fmt"
	"github.com/golang/groupcache/lru"
	lrucache "github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/afsmo/conceptual"
	"github.com/rotblauer/afsmo/params"
)

// RunID hashes v, which should hold everything that determines a run's output.
func RunID(v any) (conceptual.RunID, error) {
	hash, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return conceptual.RunID(fmt.Sprintf("%016x", hash)), nil
}

// Outputs holds recently assembled outputs keyed by run ID.
// It is safe for concurrent use.
type Outputs[V any] struct {
	lru *lrucache.Cache[conceptual.RunID, V]
}

// NewOutputs returns a cache of at most size outputs, or params.DefaultCacheSize if size <= 0.
func NewOutputs[V any](size int) *Outputs[V] {
	if size <= 0 {
		size = params.DefaultCacheSize
	}
	c, err := lrucache.New[conceptual.RunID, V](size)
	if err != nil {
		// Only a non-positive size errors.
		panic(err)
	}
	return &Outputs[V]{lru: c}
}

func (o *Outputs[V]) Get(id conceptual.RunID) (V, bool) {
	return o.lru.Get(id)
}

func (o *Outputs[V]) Add(id conceptual.RunID, v V) {
	o.lru.Add(id, v)
}

func (o *Outputs[V]) Len() int {
	return o.lru.Len()
}

// NewDedupePassLRUFunc returns a filter that passes each distinct value once,
// remembering the last 10_000 values seen by their hash.
// Values that cannot be hashed are rejected.
// The returned func is not safe for concurrent use.
func NewDedupePassLRUFunc[T any]() func(T) bool {
	var dedupeCache = lru.New(10_000)
	return func(v T) bool {
		hash, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
		if err != nil {
			return false
		}
		key := fmt.Sprintf("%d", hash)
		_, ok := dedupeCache.Get(key)
		if ok {
			return false
		}
		dedupeCache.Add(key, true)
		return true
	}
}
