// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package engine

import (
	"sync"

	"github.com/emberchain/ember/go/ember"
)

// keccakCache is a fixed-capacity, LRU-governed cache for Keccak-256 hashes,
// keyed separately for 32- and 64-byte inputs: the two sizes SHA3 is run on
// for the overwhelming majority of EVM instructions (a single word, and a
// pair of words, respectively).
type keccakCache struct {
	cache32 *lruHashCache[[32]byte]
	cache64 *lruHashCache[[64]byte]
}

func newKeccakCache(capacity32, capacity64 int) *keccakCache {
	return &keccakCache{
		cache32: newLRUHashCache(capacity32, func(key [32]byte) ember.Hash { return Keccak256For32byte(key) }),
		cache64: newLRUHashCache(capacity64, func(key [64]byte) ember.Hash { return Keccak256(key[:]) }),
	}
}

// hash returns the Keccak-256 hash of data, consulting the cache for 32- and
// 64-byte inputs and falling back to a direct hash for anything else.
func (c *keccakCache) hash(data []byte) ember.Hash {
	if len(data) == 32 {
		var key [32]byte
		copy(key[:], data)
		return c.cache32.getHash(key)
	}
	if len(data) == 64 {
		var key [64]byte
		copy(key[:], data)
		return c.cache64.getHash(key)
	}
	return Keccak256(data)
}

// lruHashCache is a generic fixed-capacity LRU cache mapping keys of type K
// to their (expensive to compute) hash.
type lruHashCache[K comparable] struct {
	entries    []lruHashCacheEntry[K]
	index      map[K]*lruHashCacheEntry[K]
	head, tail *lruHashCacheEntry[K]
	nextFree   int
	lock       sync.Mutex
	hash       func(K) ember.Hash
}

func newLRUHashCache[K comparable](capacity int, hash func(K) ember.Hash) *lruHashCache[K] {
	res := &lruHashCache[K]{
		entries: make([]lruHashCacheEntry[K], capacity),
		index:   make(map[K]*lruHashCacheEntry[K], capacity),
		hash:    hash,
	}

	// Seeding the cache with one entry (for the zero key) means every
	// lookup can assume a non-empty list, since entries are only ever
	// evicted to make room, never removed outright.
	res.head = res.getFree()
	res.tail = res.head
	var key K
	res.head.hash = hash(key)
	res.index[key] = res.head
	return res
}

func (c *lruHashCache[K]) getHash(key K) ember.Hash {
	c.lock.Lock()
	if entry, found := c.index[key]; found {
		if entry != c.head {
			entry.pred.succ = entry.succ
			if entry.succ != nil {
				entry.succ.pred = entry.pred
			} else {
				c.tail = entry.pred
			}
			entry.pred = nil
			entry.succ = c.head
			c.head.pred = entry
			c.head = entry
		}
		c.lock.Unlock()
		return entry.hash
	}

	// Compute the hash without holding the lock.
	c.lock.Unlock()
	hash := c.hash(key)
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, found := c.index[key]; found {
		// added concurrently while we computed it
		return hash
	}

	entry := c.getFree()
	entry.key = key
	entry.hash = hash
	entry.pred = nil
	entry.succ = c.head
	c.head.pred = entry
	c.head = entry
	c.index[key] = entry
	return entry.hash
}

func (c *lruHashCache[K]) getFree() *lruHashCacheEntry[K] {
	if c.nextFree < len(c.entries) {
		res := &c.entries[c.nextFree]
		c.nextFree++
		return res
	}
	res := c.tail
	c.tail = c.tail.pred
	c.tail.succ = nil
	delete(c.index, res.key)
	return res
}

// lruHashCacheEntry is a node in lruHashCache's doubly linked LRU list.
type lruHashCacheEntry[K any] struct {
	key        K
	hash       ember.Hash
	pred, succ *lruHashCacheEntry[K]
}
