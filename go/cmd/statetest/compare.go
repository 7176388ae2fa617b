// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"

	"github.com/emberchain/ember/go/ember"
	"github.com/emberchain/ember/go/state"
)

// comparePostState checks the executed journal's state delta against the
// fixture's expected post-state allocation, account by account and slot by
// slot. This replaces the reference driver's state-root comparison (see
// fixture.go's doc comment for why).
func comparePostState(journal *state.JournaledState, expected map[string]fixtureAccount) error {
	delta := journal.Delta()
	for addrStr, want := range expected {
		addr, err := parseAddress(addrStr)
		if err != nil {
			return err
		}
		got, ok := delta[addr]
		if !ok {
			return fmt.Errorf("account %s missing from post-state", addrStr)
		}
		if got.Nonce != want.Nonce {
			return fmt.Errorf("account %s: nonce got %d, want %d", addrStr, got.Nonce, want.Nonce)
		}
		wantBalance, err := parseValue(want.Balance)
		if err != nil {
			return err
		}
		if got.Balance != wantBalance {
			return fmt.Errorf("account %s: balance got %x, want %x", addrStr, got.Balance, wantBalance)
		}
		wantCode, err := parseHex(want.Code)
		if err != nil {
			return err
		}
		if string(got.Code) != string(wantCode) {
			return fmt.Errorf("account %s: code mismatch", addrStr)
		}
		for keyStr, wantValStr := range want.Storage {
			key, err := parseHash(keyStr)
			if err != nil {
				return err
			}
			wantVal, err := parseWord(wantValStr)
			if err != nil {
				return err
			}
			if got.Storage[ember.Key(key)] != wantVal {
				return fmt.Errorf("account %s slot %s: got %x, want %x",
					addrStr, keyStr, got.Storage[ember.Key(key)], wantVal)
			}
		}
	}
	return nil
}
