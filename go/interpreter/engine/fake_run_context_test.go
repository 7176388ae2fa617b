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

import "github.com/emberchain/ember/go/ember"

// fakeRunContext is a minimal in-memory ember.RunContext used to exercise
// single instructions without pulling in a full world-state implementation.
type fakeRunContext struct {
	balances  map[ember.Address]ember.Value
	code      map[ember.Address]ember.Code
	storage   map[ember.Address]map[ember.Key]ember.Word
	committed map[ember.Address]map[ember.Key]ember.Word
	transient map[ember.Address]map[ember.Key]ember.Word
	warmAddrs map[ember.Address]bool
	warmSlots map[ember.Address]map[ember.Key]bool
	destructed map[ember.Address]bool
	logs      []ember.Log

	callResult ember.CallResult
	callErr    error
}

func newFakeRunContext() *fakeRunContext {
	return &fakeRunContext{
		balances:   map[ember.Address]ember.Value{},
		code:       map[ember.Address]ember.Code{},
		storage:    map[ember.Address]map[ember.Key]ember.Word{},
		committed:  map[ember.Address]map[ember.Key]ember.Word{},
		transient:  map[ember.Address]map[ember.Key]ember.Word{},
		warmAddrs:  map[ember.Address]bool{},
		warmSlots:  map[ember.Address]map[ember.Key]bool{},
		destructed: map[ember.Address]bool{},
	}
}

func (f *fakeRunContext) AccountExists(addr ember.Address) bool {
	_, ok := f.balances[addr]
	return ok
}

func (f *fakeRunContext) GetBalance(addr ember.Address) ember.Value { return f.balances[addr] }
func (f *fakeRunContext) SetBalance(addr ember.Address, v ember.Value) { f.balances[addr] = v }
func (f *fakeRunContext) GetNonce(ember.Address) uint64                { return 0 }
func (f *fakeRunContext) SetNonce(ember.Address, uint64)               {}
func (f *fakeRunContext) GetCode(addr ember.Address) ember.Code        { return f.code[addr] }
func (f *fakeRunContext) GetCodeHash(ember.Address) ember.Hash         { return ember.Hash{} }
func (f *fakeRunContext) GetCodeSize(addr ember.Address) int           { return len(f.code[addr]) }
func (f *fakeRunContext) SetCode(addr ember.Address, c ember.Code)     { f.code[addr] = c }

func (f *fakeRunContext) GetStorage(addr ember.Address, key ember.Key) ember.Word {
	return f.storage[addr][key]
}

func (f *fakeRunContext) SetStorage(addr ember.Address, key ember.Key, value ember.Word) ember.StorageStatus {
	if f.storage[addr] == nil {
		f.storage[addr] = map[ember.Key]ember.Word{}
	}
	f.storage[addr][key] = value
	return ember.StorageAssigned
}

func (f *fakeRunContext) SelfDestruct(addr, beneficiary ember.Address) bool {
	first := !f.destructed[addr]
	f.destructed[addr] = true
	return first
}

func (f *fakeRunContext) CreateSnapshot() ember.Snapshot   { return 0 }
func (f *fakeRunContext) RestoreSnapshot(ember.Snapshot)   {}

func (f *fakeRunContext) GetTransientStorage(addr ember.Address, key ember.Key) ember.Word {
	return f.transient[addr][key]
}

func (f *fakeRunContext) SetTransientStorage(addr ember.Address, key ember.Key, value ember.Word) {
	if f.transient[addr] == nil {
		f.transient[addr] = map[ember.Key]ember.Word{}
	}
	f.transient[addr][key] = value
}

func (f *fakeRunContext) AccessAccount(addr ember.Address) ember.AccessStatus {
	if f.warmAddrs[addr] {
		return ember.WarmAccess
	}
	f.warmAddrs[addr] = true
	return ember.ColdAccess
}

func (f *fakeRunContext) AccessStorage(addr ember.Address, key ember.Key) ember.AccessStatus {
	if f.warmSlots[addr] == nil {
		f.warmSlots[addr] = map[ember.Key]bool{}
	}
	if f.warmSlots[addr][key] {
		return ember.WarmAccess
	}
	f.warmSlots[addr][key] = true
	return ember.ColdAccess
}

func (f *fakeRunContext) EmitLog(log ember.Log)  { f.logs = append(f.logs, log) }
func (f *fakeRunContext) GetLogs() []ember.Log   { return f.logs }
func (f *fakeRunContext) GetBlockHash(int64) ember.Hash { return ember.Hash{} }

func (f *fakeRunContext) GetCommittedStorage(addr ember.Address, key ember.Key) ember.Word {
	return f.committed[addr][key]
}
func (f *fakeRunContext) IsAddressInAccessList(ember.Address) bool { return false }
func (f *fakeRunContext) IsSlotInAccessList(ember.Address, ember.Key) (bool, bool) {
	return false, false
}
func (f *fakeRunContext) HasSelfDestructed(addr ember.Address) bool { return f.destructed[addr] }

func (f *fakeRunContext) Call(ember.CallKind, ember.CallParameters) (ember.CallResult, error) {
	return f.callResult, f.callErr
}
