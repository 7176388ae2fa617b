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

// journalEntry is one reversible mutation recorded against a JournaledState.
// Every mutation the state performs appends an entry whose revert restores
// the field it touched to its pre-mutation value; a write may append more
// than one (for example a balance change plus the first touch of the
// account). This is the "tagged variants of one enumeration" design called
// out for the journal: Go has no closed sum type, so each kind gets its own
// struct implementing the same interface. No test enumerates the kinds; they
// are exercised through the snapshot/restore tests in state_test.go.
type journalEntry interface {
	revert(s *JournaledState)
}

type balanceChange struct {
	addr ember.Address
	prev ember.Value
}

func (e balanceChange) revert(s *JournaledState) { s.account(e.addr).balance = e.prev }

type nonceChange struct {
	addr ember.Address
	prev uint64
}

func (e nonceChange) revert(s *JournaledState) { s.account(e.addr).nonce = e.prev }

type codeChange struct {
	addr     ember.Address
	prevCode ember.Code
	prevHash ember.Hash
	prevSet  bool
}

func (e codeChange) revert(s *JournaledState) {
	a := s.account(e.addr)
	a.code = e.prevCode
	a.codeHash = e.prevHash
	a.codeSet = e.prevSet
}

type storageChange struct {
	addr ember.Address
	key  ember.Key
	prev ember.Word
}

func (e storageChange) revert(s *JournaledState) {
	s.storageFor(e.addr)[e.key].current = e.prev
}

type transientStorageChange struct {
	addr    ember.Address
	key     ember.Key
	prev    ember.Word
	hadPrev bool
}

func (e transientStorageChange) revert(s *JournaledState) {
	slots := s.transient[e.addr]
	if !e.hadPrev {
		delete(slots, e.key)
		return
	}
	slots[e.key] = e.prev
}

type touchChange struct {
	addr        ember.Address
	prevTouched bool
}

func (e touchChange) revert(s *JournaledState) { s.account(e.addr).touched = e.prevTouched }

type accountLoaded struct {
	addr ember.Address
}

func (e accountLoaded) revert(s *JournaledState) {
	delete(s.accounts, e.addr)
}

type selfDestructChange struct {
	addr            ember.Address
	prevDestructed  bool
	prevBalance     ember.Value
	beneficiaryAddr ember.Address
	beneficiaryPrev ember.Value
}

func (e selfDestructChange) revert(s *JournaledState) {
	a := s.account(e.addr)
	a.selfDestructed = e.prevDestructed
	a.balance = e.prevBalance
	s.account(e.beneficiaryAddr).balance = e.beneficiaryPrev
}

type warmAddressAdded struct {
	addr ember.Address
}

func (e warmAddressAdded) revert(s *JournaledState) { delete(s.warmAddresses, e.addr) }

type warmSlotAdded struct {
	addr ember.Address
	key  ember.Key
}

func (e warmSlotAdded) revert(s *JournaledState) {
	slots := s.warmSlots[e.addr]
	delete(slots, e.key)
}

type logEmitted struct{}

func (e logEmitted) revert(s *JournaledState) {
	s.logs = s.logs[:len(s.logs)-1]
}
