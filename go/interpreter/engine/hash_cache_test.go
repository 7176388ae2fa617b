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
	"bytes"
	"testing"

	"github.com/emberchain/ember/go/ember"
)

func TestKeccakCache_EmptyCacheHoldsSeededZeroKey(t *testing.T) {
	cache := newKeccakCache(3, 3)

	if len(cache.cache32.entries) != 3 {
		t.Fatalf("cache32 should have capacity 3, got %d", len(cache.cache32.entries))
	}
	if len(cache.cache64.entries) != 3 {
		t.Fatalf("cache64 should have capacity 3, got %d", len(cache.cache64.entries))
	}
	if cache.cache32.nextFree != 1 {
		t.Fatalf("nextFree should be 1 after seeding, got %d", cache.cache32.nextFree)
	}
	if cache.cache32.head != cache.cache32.tail {
		t.Fatalf("head and tail should coincide right after seeding")
	}
}

func TestKeccakCache_ComputesAndCachesHash(t *testing.T) {
	data32 := bytes.Repeat([]byte{0x01}, 32)

	cache := newKeccakCache(3, 3)
	want := Keccak256(data32)

	got := cache.hash(data32)
	if got != want {
		t.Fatalf("hash(%x) = %x, want %x", data32, got, want)
	}

	// Second lookup must hit the cache and return the same value.
	if got2 := cache.hash(data32); got2 != want {
		t.Fatalf("cached hash(%x) = %x, want %x", data32, got2, want)
	}
}

func TestKeccakCache_FallsBackForOtherSizes(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	cache := newKeccakCache(3, 3)

	want := Keccak256(data)
	if got := cache.hash(data); got != want {
		t.Fatalf("hash(%x) = %x, want %x", data, got, want)
	}
}

func TestLRUHashCache_TouchMovesEntryToFront(t *testing.T) {
	cache := newLRUHashCache(3, func(key [32]byte) ember.Hash { return Keccak256(key[:]) })

	var k1, k2, k3 [32]byte
	k1[0], k2[0], k3[0] = 1, 2, 3

	cache.getHash(k1)
	cache.getHash(k2)
	cache.getHash(k3)
	cache.getHash(k1)

	if cache.tail.key != k2 {
		t.Fatalf("least recently touched key should now be k2, got %v", cache.tail.key)
	}
}

func TestLRUHashCache_EvictsOldestOnceFull(t *testing.T) {
	cache := newLRUHashCache(3, func(key [32]byte) ember.Hash { return Keccak256(key[:]) })

	var zero, k1, k2, k3, k4 [32]byte
	k1[0], k2[0], k3[0], k4[0] = 1, 2, 3, 4

	// The cache seeds itself with the zero key, so with capacity 3 only
	// two more distinct keys fit before an eviction is forced.
	cache.getHash(k1)
	cache.getHash(k2)

	if cache.tail.key != zero {
		t.Fatalf("oldest entry should still be the seeded zero key, got %v", cache.tail.key)
	}

	cache.getHash(k3)
	if cache.tail.key != k1 {
		t.Fatalf("zero key should have been evicted to make room for k3, got tail %v", cache.tail.key)
	}

	cache.getHash(k4)
	if cache.tail.key != k2 {
		t.Fatalf("k1 should have been evicted to make room for k4, got tail %v", cache.tail.key)
	}
	if cache.head.key != k4 {
		t.Fatalf("most recently inserted key should be head, got %v", cache.head.key)
	}
}
