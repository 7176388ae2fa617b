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

import (
	"testing"

	"github.com/emberchain/ember/go/ember"
)

func TestSetBalance_RevertsOnSnapshotRestore(t *testing.T) {
	db := NewMemoryDatabase()
	addr := ember.Address{1}
	db.SetAccount(addr, ember.BasicAccount{Balance: ember.Value{1}})

	s := New(db)
	before := s.GetBalance(addr)

	snap := s.CreateSnapshot()
	s.SetBalance(addr, ember.Value{9})
	if s.GetBalance(addr) == before {
		t.Fatalf("expected balance to change before revert")
	}

	s.RestoreSnapshot(snap)
	if s.GetBalance(addr) != before {
		t.Errorf("expected balance restored to %v, got %v", before, s.GetBalance(addr))
	}
}

func TestSetStorage_OriginalSurvivesRevert(t *testing.T) {
	db := NewMemoryDatabase()
	addr := ember.Address{2}
	key := ember.Key{7}
	db.SetStorage(addr, key, ember.Word{1})

	s := New(db)
	s.SetStorage(addr, key, ember.Word{2}) // present now 2, original stays 1

	snap := s.CreateSnapshot()
	s.SetStorage(addr, key, ember.Word{3})
	s.RestoreSnapshot(snap)

	if got := s.GetStorage(addr, key); got != (ember.Word{2}) {
		t.Errorf("expected storage restored to {2}, got %v", got)
	}
	if got := s.GetCommittedStorage(addr, key); got != (ember.Word{1}) {
		t.Errorf("expected original to remain {1} across reverts, got %v", got)
	}
}

func TestNestedSnapshots_RevertOnlyInnerRegion(t *testing.T) {
	db := NewMemoryDatabase()
	addr := ember.Address{3}
	s := New(db)

	s.SetNonce(addr, 1)
	outer := s.CreateSnapshot()
	s.SetNonce(addr, 2)
	inner := s.CreateSnapshot()
	s.SetNonce(addr, 3)

	s.RestoreSnapshot(inner)
	if got := s.GetNonce(addr); got != 2 {
		t.Fatalf("expected nonce 2 after inner revert, got %d", got)
	}

	s.RestoreSnapshot(outer)
	if got := s.GetNonce(addr); got != 1 {
		t.Fatalf("expected nonce 1 after outer revert, got %d", got)
	}
}

func TestAccessAccount_WarmOnSecondAccess(t *testing.T) {
	db := NewMemoryDatabase()
	addr := ember.Address{4}
	s := New(db)

	if got := s.AccessAccount(addr); got != ember.ColdAccess {
		t.Fatalf("expected first access cold, got %v", got)
	}
	if got := s.AccessAccount(addr); got != ember.WarmAccess {
		t.Fatalf("expected second access warm, got %v", got)
	}
}

func TestAccessAccount_ColdAgainAfterRevert(t *testing.T) {
	db := NewMemoryDatabase()
	addr := ember.Address{5}
	s := New(db)

	snap := s.CreateSnapshot()
	s.AccessAccount(addr)
	s.RestoreSnapshot(snap)

	if got := s.AccessAccount(addr); got != ember.ColdAccess {
		t.Errorf("expected warm-set entry to be forgotten on revert, got %v", got)
	}
}

func TestSelfDestruct_RevertRestoresBothBalances(t *testing.T) {
	db := NewMemoryDatabase()
	addr := ember.Address{6}
	beneficiary := ember.Address{7}
	db.SetAccount(addr, ember.BasicAccount{Balance: ember.Value{10}})

	s := New(db)
	snap := s.CreateSnapshot()

	first := s.SelfDestruct(addr, beneficiary)
	if !first {
		t.Fatalf("expected first selfdestruct to report first=true")
	}
	if s.GetBalance(addr) != (ember.Value{}) {
		t.Fatalf("expected destructed account balance zeroed")
	}
	if s.GetBalance(beneficiary) != (ember.Value{10}) {
		t.Fatalf("expected beneficiary credited")
	}

	s.RestoreSnapshot(snap)
	if s.GetBalance(addr) != (ember.Value{10}) {
		t.Errorf("expected addr balance restored, got %v", s.GetBalance(addr))
	}
	if s.GetBalance(beneficiary) != (ember.Value{}) {
		t.Errorf("expected beneficiary balance restored to zero, got %v", s.GetBalance(beneficiary))
	}
}

func TestEmitLog_RevertDropsLog(t *testing.T) {
	s := New(NewMemoryDatabase())
	snap := s.CreateSnapshot()
	s.EmitLog(ember.Log{Address: ember.Address{8}})
	if len(s.GetLogs()) != 1 {
		t.Fatalf("expected one log before revert")
	}
	s.RestoreSnapshot(snap)
	if len(s.GetLogs()) != 0 {
		t.Errorf("expected log dropped on revert, got %d", len(s.GetLogs()))
	}
}

func TestTransientStorage_ClearedOnRevertNotOnCommit(t *testing.T) {
	s := New(NewMemoryDatabase())
	addr := ember.Address{9}
	key := ember.Key{1}

	s.SetTransientStorage(addr, key, ember.Word{42})
	snap := s.CreateSnapshot()
	s.SetTransientStorage(addr, key, ember.Word{43})
	s.RestoreSnapshot(snap)

	if got := s.GetTransientStorage(addr, key); got != (ember.Word{42}) {
		t.Errorf("expected transient value restored to {42}, got %v", got)
	}
}

func TestClassifyStorageStatus_Table(t *testing.T) {
	zero := ember.Word{}
	x := ember.Word{1}
	y := ember.Word{2}
	z := ember.Word{3}

	cases := []struct {
		name                     string
		original, present, next ember.Word
		want                     ember.StorageStatus
	}{
		{"no-op", x, x, x, ember.StorageAssigned},
		{"added", zero, zero, z, ember.StorageAdded},
		{"deleted", x, x, zero, ember.StorageDeleted},
		{"modified", x, x, z, ember.StorageModified},
		{"deleted-added", x, zero, z, ember.StorageDeletedAdded},
		{"modified-deleted", x, y, zero, ember.StorageModifiedDeleted},
		{"deleted-restored", x, zero, x, ember.StorageDeletedRestored},
		{"added-deleted", zero, y, zero, ember.StorageAddedDeleted},
		{"modified-restored", x, y, x, ember.StorageModifiedRestored},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := classifyStorageStatus(c.original, c.present, c.next); got != c.want {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}
}
