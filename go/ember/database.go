// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ember

import "fmt"

//go:generate mockgen -source database.go -destination database_mock.go -package ember

// BasicAccount is the by-value projection of an account a Database exposes:
// everything needed to seed the journaled state's cache without pulling in
// the account's storage, which is read lazily, slot by slot.
type BasicAccount struct {
	Nonce    uint64
	Balance  Value
	CodeHash Hash
}

// Database is the pluggable, read-only backing store the journaled state
// layers its cache and journal on top of. It is never mutated by the core
// directly: every write observed by a transaction lives in the journal until
// the caller commits the resulting state delta back into its own database.
//
// Concrete implementations (an in-memory map for tests, an LRU-fronted
// remote store, a Merkle-Patricia trie reader) are external collaborators;
// this interface is the only contract the core depends on.
type Database interface {
	// Basic returns the account's nonce, balance and code hash. The second
	// return value is false if the account does not exist.
	Basic(Address) (BasicAccount, bool, error)

	// CodeByHash resolves a code hash to its bytes. Returns an empty slice
	// for the hash of empty code.
	CodeByHash(Hash) (Code, error)

	// Storage returns the value of a storage slot; the zero word for an
	// unset slot.
	Storage(Address, Key) (Word, error)

	// BlockHash returns the hash of the block with the given number, used
	// by the BLOCKHASH opcode. Implementations typically only retain a
	// bounded window of recent blocks.
	BlockHash(number int64) (Hash, error)
}

// DatabaseError wraps a failure surfaced by the backing Database. It is a
// fatal execution outcome, distinct from a revert: it propagates out of the
// transaction handler unchanged rather than being absorbed as a halt.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}
