// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package state implements the journaled account/storage overlay described
// in spec.md's "journaled state" component: an in-memory cache over a
// pluggable, read-only ember.Database, recording every mutation as a
// reversible journal entry so that call/create frames can be rewound
// without cloning the world.
package state

import (
	"github.com/emberchain/ember/go/ember"
	"github.com/emberchain/ember/go/interpreter/engine"
)

// JournaledState implements ember.TransactionContext over an
// ember.Database. One instance is constructed per transaction; its state
// delta (via Delta and TouchedEmptyAccounts) is extracted once execution completes
// and flushed back into the caller's own database.
type JournaledState struct {
	db ember.Database

	accounts  map[ember.Address]*accountState
	storage   map[ember.Address]map[ember.Key]*storageSlot
	transient map[ember.Address]map[ember.Key]ember.Word

	warmAddresses map[ember.Address]bool
	warmSlots     map[ember.Address]map[ember.Key]bool

	journal []journalEntry
	logs    []ember.Log
	refund  ember.Gas
}

// New constructs an empty journaled state backed by db.
func New(db ember.Database) *JournaledState {
	return &JournaledState{
		db:            db,
		accounts:      map[ember.Address]*accountState{},
		storage:       map[ember.Address]map[ember.Key]*storageSlot{},
		transient:     map[ember.Address]map[ember.Key]ember.Word{},
		warmAddresses: map[ember.Address]bool{},
		warmSlots:     map[ember.Address]map[ember.Key]bool{},
	}
}

// GetRefund returns the accumulated refund counter, uncapped. The handler
// pipeline applies the fork-specific cap once, at the end of the
// transaction, per spec.md §4.5.
func (s *JournaledState) GetRefund() ember.Gas { return s.refund }

// account returns the cached entry for addr, loading it from the database
// on first touch. The first load in a transaction is journaled so that a
// reverted call frame forgets accounts it only peeked at.
func (s *JournaledState) account(addr ember.Address) *accountState {
	if a, ok := s.accounts[addr]; ok {
		return a
	}
	a := &accountState{}
	basic, found, err := s.db.Basic(addr)
	if err == nil && found {
		a.exists = true
		a.nonce = basic.Nonce
		a.balance = basic.Balance
		a.codeHash = basic.CodeHash
	}
	s.accounts[addr] = a
	s.journal = append(s.journal, accountLoaded{addr: addr})
	return a
}

func (s *JournaledState) storageFor(addr ember.Address) map[ember.Key]*storageSlot {
	m := s.storage[addr]
	if m == nil {
		m = map[ember.Key]*storageSlot{}
		s.storage[addr] = m
	}
	return m
}

// touch marks addr as touched in this transaction the first time it is
// observed, journaling the transition so an empty account touched only by
// a reverted call frame is forgotten, per spec.md's empty-account-clearing
// rule.
func (s *JournaledState) touch(addr ember.Address, a *accountState) {
	if a.touched {
		return
	}
	s.journal = append(s.journal, touchChange{addr: addr, prevTouched: false})
	a.touched = true
}

func (s *JournaledState) slot(addr ember.Address, key ember.Key) *storageSlot {
	m := s.storageFor(addr)
	sl, ok := m[key]
	if ok {
		return sl
	}
	sl = &storageSlot{}
	value, err := s.db.Storage(addr, key)
	if err == nil {
		sl.original = value
		sl.current = value
	}
	sl.originalRead = true
	m[key] = sl
	return sl
}

// --- ember.WorldState ---

func (s *JournaledState) AccountExists(addr ember.Address) bool {
	return s.account(addr).exists
}

func (s *JournaledState) GetBalance(addr ember.Address) ember.Value {
	return s.account(addr).balance
}

func (s *JournaledState) SetBalance(addr ember.Address, v ember.Value) {
	a := s.account(addr)
	prev := a.balance
	if prev == v {
		return
	}
	s.journal = append(s.journal, balanceChange{addr: addr, prev: prev})
	a.balance = v
	s.touch(addr, a)
}

func (s *JournaledState) GetNonce(addr ember.Address) uint64 {
	return s.account(addr).nonce
}

func (s *JournaledState) SetNonce(addr ember.Address, nonce uint64) {
	a := s.account(addr)
	if a.nonce == nonce {
		return
	}
	s.journal = append(s.journal, nonceChange{addr: addr, prev: a.nonce})
	a.nonce = nonce
	s.touch(addr, a)
}

func (s *JournaledState) GetCode(addr ember.Address) ember.Code {
	a := s.account(addr)
	s.ensureCodeLoaded(addr, a)
	return a.code
}

func (s *JournaledState) GetCodeHash(addr ember.Address) ember.Hash {
	return s.account(addr).codeHash
}

func (s *JournaledState) GetCodeSize(addr ember.Address) int {
	a := s.account(addr)
	s.ensureCodeLoaded(addr, a)
	return len(a.code)
}

func (s *JournaledState) ensureCodeLoaded(addr ember.Address, a *accountState) {
	if a.codeSet {
		return
	}
	code, err := s.db.CodeByHash(a.codeHash)
	if err == nil {
		a.code = code
	}
	a.codeSet = true
}

func (s *JournaledState) SetCode(addr ember.Address, code ember.Code) {
	a := s.account(addr)
	s.journal = append(s.journal, codeChange{
		addr: addr, prevCode: a.code, prevHash: a.codeHash, prevSet: a.codeSet,
	})
	a.code = code
	a.codeHash = engine.Keccak256(code)
	a.codeSet = true
	s.touch(addr, a)
}

func (s *JournaledState) GetStorage(addr ember.Address, key ember.Key) ember.Word {
	return s.slot(addr, key).current
}

// GetCommittedStorage returns the slot's value as observed on its first
// access in this transaction, unaffected by any subsequent write or revert
// within the transaction — the "original" leg of spec.md's storage triple.
func (s *JournaledState) GetCommittedStorage(addr ember.Address, key ember.Key) ember.Word {
	return s.slot(addr, key).original
}

func (s *JournaledState) SetStorage(addr ember.Address, key ember.Key, value ember.Word) ember.StorageStatus {
	sl := s.slot(addr, key)
	prev := sl.current
	status := classifyStorageStatus(sl.original, prev, value)
	if prev != value {
		s.journal = append(s.journal, storageChange{addr: addr, key: key, prev: prev})
		sl.current = value
	}
	s.touch(addr, s.account(addr))
	return status
}

func classifyStorageStatus(original, present, next ember.Word) ember.StorageStatus {
	zero := ember.Word{}
	switch {
	case present == next:
		return ember.StorageAssigned
	case original == present:
		if original == zero {
			return ember.StorageAdded
		}
		if next == zero {
			return ember.StorageDeleted
		}
		return ember.StorageModified
	default:
		switch {
		case original == zero:
			if next == zero {
				return ember.StorageAddedDeleted
			}
			return ember.StorageAssigned
		case original == next:
			if present == zero {
				return ember.StorageDeletedRestored
			}
			return ember.StorageModifiedRestored
		case next == zero:
			return ember.StorageModifiedDeleted
		case present == zero:
			return ember.StorageDeletedAdded
		default:
			return ember.StorageAssigned
		}
	}
}

func (s *JournaledState) SelfDestruct(addr, beneficiary ember.Address) bool {
	a := s.account(addr)
	b := s.account(beneficiary)
	first := !a.selfDestructed

	prevBalance := a.balance
	prevBeneficiary := b.balance
	amount := a.balance
	if addr != beneficiary {
		b.balance = addBalance(b.balance, amount)
		a.balance = ember.Value{}
	}
	a.selfDestructed = true
	s.touch(addr, a)

	s.journal = append(s.journal, selfDestructChange{
		addr: addr, prevDestructed: !first, prevBalance: prevBalance,
		beneficiaryAddr: beneficiary, beneficiaryPrev: prevBeneficiary,
	})
	return first
}

// --- ember.TransactionContext ---

func (s *JournaledState) CreateSnapshot() ember.Snapshot {
	return ember.Snapshot(len(s.journal))
}

func (s *JournaledState) RestoreSnapshot(snap ember.Snapshot) {
	target := int(snap)
	for i := len(s.journal) - 1; i >= target; i-- {
		s.journal[i].revert(s)
	}
	s.journal = s.journal[:target]
}

func (s *JournaledState) GetTransientStorage(addr ember.Address, key ember.Key) ember.Word {
	return s.transient[addr][key]
}

func (s *JournaledState) SetTransientStorage(addr ember.Address, key ember.Key, value ember.Word) {
	slots := s.transient[addr]
	prev, had := slots[key]
	if had && prev == value {
		return
	}
	s.journal = append(s.journal, transientStorageChange{addr: addr, key: key, prev: prev, hadPrev: had})
	if slots == nil {
		slots = map[ember.Key]ember.Word{}
		s.transient[addr] = slots
	}
	slots[key] = value
}

func (s *JournaledState) AccessAccount(addr ember.Address) ember.AccessStatus {
	if s.warmAddresses[addr] {
		return ember.WarmAccess
	}
	s.warmAddresses[addr] = true
	s.journal = append(s.journal, warmAddressAdded{addr: addr})
	return ember.ColdAccess
}

func (s *JournaledState) AccessStorage(addr ember.Address, key ember.Key) ember.AccessStatus {
	slots := s.warmSlots[addr]
	if slots != nil && slots[key] {
		return ember.WarmAccess
	}
	if slots == nil {
		slots = map[ember.Key]bool{}
		s.warmSlots[addr] = slots
	}
	slots[key] = true
	s.journal = append(s.journal, warmSlotAdded{addr: addr, key: key})
	return ember.ColdAccess
}

func (s *JournaledState) EmitLog(log ember.Log) {
	s.logs = append(s.logs, log)
	s.journal = append(s.journal, logEmitted{})
}

func (s *JournaledState) GetLogs() []ember.Log {
	return s.logs
}

func (s *JournaledState) GetBlockHash(number int64) ember.Hash {
	h, err := s.db.BlockHash(number)
	if err != nil {
		return ember.Hash{}
	}
	return h
}

// --- legacy API needed by the interpreter engine, see ember.TransactionContext ---

func (s *JournaledState) IsAddressInAccessList(addr ember.Address) bool {
	return s.warmAddresses[addr]
}

func (s *JournaledState) IsSlotInAccessList(addr ember.Address, key ember.Key) (bool, bool) {
	addrPresent := s.warmAddresses[addr]
	slots := s.warmSlots[addr]
	return addrPresent, slots != nil && slots[key]
}

func (s *JournaledState) HasSelfDestructed(addr ember.Address) bool {
	return s.account(addr).selfDestructed
}

func addBalance(v ember.Value, amount ember.Value) ember.Value {
	var carry uint
	var out ember.Value
	for i := len(v) - 1; i >= 0; i-- {
		sum := uint(v[i]) + uint(amount[i]) + carry
		out[i] = byte(sum)
		carry = sum >> 8
	}
	return out
}
