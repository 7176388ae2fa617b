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
	"golang.org/x/crypto/sha3"
)

var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Read(out []byte) (int, error)
}

var emptyKeccak256Hash = keccak256Uncached([]byte{})

func keccak256Uncached(data []byte) ember.Hash {
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	_, _ = hasher.Write(data) // keccak256 never returns an error
	var res ember.Hash
	_, _ = hasher.Read(res[:]) // keccak256 never returns an error
	keccakHasherPool.Put(hasher)
	return res
}

// Keccak256 computes the Keccak-256 hash of data, the canonical hash used
// throughout the EVM (SHA3 opcode, code hashing, CREATE2 address derivation).
func Keccak256(data []byte) ember.Hash {
	if len(data) == 0 {
		return emptyKeccak256Hash
	}
	return keccak256Uncached(data)
}

// Keccak256For32byte is a convenience wrapper for the common case of hashing
// a single 32-byte word, avoiding a slice conversion at call sites.
func Keccak256For32byte(data [32]byte) ember.Hash {
	return keccak256Uncached(data[:])
}
