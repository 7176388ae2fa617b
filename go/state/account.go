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

// accountState is the cached, mutable view of one account for the lifetime
// of a transaction. It is created on first touch, seeded from the backing
// database, and discarded once the transaction's state delta is extracted.
type accountState struct {
	exists   bool
	nonce    uint64
	balance  ember.Value
	codeHash ember.Hash
	code     ember.Code
	codeSet  bool // true once code has been loaded or explicitly assigned

	touched        bool
	selfDestructed bool
	createdInTx    bool
}

func (a *accountState) clone() *accountState {
	c := *a
	if a.code != nil {
		c.code = append(ember.Code(nil), a.code...)
	}
	return &c
}

// storageSlot tracks the (original, present) pair for one key of one
// account, as described in spec.md's data model: original is fixed at the
// value observed on the slot's first access in the transaction and never
// changes thereafter, regardless of intervening reverts.
type storageSlot struct {
	original     ember.Word
	current      ember.Word
	originalRead bool
}
