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

// AccountDelta is the final, by-value contents of one account touched
// during a transaction, as handed back to the caller for flushing into its
// own database — spec.md's "state delta" produced by the handler
// pipeline's materialize-output stage.
type AccountDelta struct {
	Nonce          uint64
	Balance        ember.Value
	Code           ember.Code
	CodeHash       ember.Hash
	Storage        map[ember.Key]ember.Word
	SelfDestructed bool
}

// Delta extracts the by-value state of every account touched or read
// during the transaction. Untouched accounts that were only loaded (e.g.
// an account merely peeked at by BALANCE) are included as read-only
// entries so the caller can decide independently whether an empty,
// untouched account should be pruned per the relevant fork's
// empty-account-clearing rule.
func (s *JournaledState) Delta() map[ember.Address]AccountDelta {
	out := make(map[ember.Address]AccountDelta, len(s.accounts))
	for addr, a := range s.accounts {
		clone := a.clone()
		storage := map[ember.Key]ember.Word{}
		for key, slot := range s.storage[addr] {
			storage[key] = slot.current
		}
		out[addr] = AccountDelta{
			Nonce:          clone.nonce,
			Balance:        clone.balance,
			Code:           clone.code,
			CodeHash:       clone.codeHash,
			Storage:        storage,
			SelfDestructed: clone.selfDestructed,
		}
	}
	return out
}

// TouchedEmptyAccounts returns the addresses of accounts observed as
// empty (nonce 0, balance 0, no code) and touched during the transaction
// — the set a fork with empty-account-clearing enabled must prune.
func (s *JournaledState) TouchedEmptyAccounts() []ember.Address {
	var out []ember.Address
	for addr, a := range s.accounts {
		if a.touched && a.nonce == 0 && a.balance == (ember.Value{}) && len(a.code) == 0 {
			out = append(out, addr)
		}
	}
	return out
}
