// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import "github.com/emberchain/ember/go/ember"

// MemoryDatabase is a map-backed ember.Database, used by tests and by the
// state-test harness to seed a transaction's pre-state. It is not the
// production backing store (spec.md explicitly leaves the Merkle-Patricia
// trie and any remote/cached database out of scope); it exists purely to
// give JournaledState something to sit on.
type MemoryDatabase struct {
	accounts   map[ember.Address]ember.BasicAccount
	code       map[ember.Hash]ember.Code
	storage    map[ember.Address]map[ember.Key]ember.Word
	blockHashes map[int64]ember.Hash
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		accounts:    map[ember.Address]ember.BasicAccount{},
		code:        map[ember.Hash]ember.Code{},
		storage:     map[ember.Address]map[ember.Key]ember.Word{},
		blockHashes: map[int64]ember.Hash{},
	}
}

func (m *MemoryDatabase) SetAccount(addr ember.Address, account ember.BasicAccount) {
	m.accounts[addr] = account
}

func (m *MemoryDatabase) SetCode(hash ember.Hash, code ember.Code) {
	m.code[hash] = code
}

func (m *MemoryDatabase) SetStorage(addr ember.Address, key ember.Key, value ember.Word) {
	slots := m.storage[addr]
	if slots == nil {
		slots = map[ember.Key]ember.Word{}
		m.storage[addr] = slots
	}
	slots[key] = value
}

func (m *MemoryDatabase) SetBlockHash(number int64, hash ember.Hash) {
	m.blockHashes[number] = hash
}

func (m *MemoryDatabase) Basic(addr ember.Address) (ember.BasicAccount, bool, error) {
	a, ok := m.accounts[addr]
	return a, ok, nil
}

func (m *MemoryDatabase) CodeByHash(hash ember.Hash) (ember.Code, error) {
	return m.code[hash], nil
}

func (m *MemoryDatabase) Storage(addr ember.Address, key ember.Key) (ember.Word, error) {
	return m.storage[addr][key], nil
}

func (m *MemoryDatabase) BlockHash(number int64) (ember.Hash, error) {
	return m.blockHashes[number], nil
}
