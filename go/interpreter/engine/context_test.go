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
	"testing"

	"github.com/emberchain/ember/go/ember"
)

func TestContext_UseGas_ReturnsFalseOnceExhausted(t *testing.T) {
	tests := map[string]struct {
		available ember.Gas
		required  ember.Gas
		want      bool
	}{
		"sufficient gas":   {100, 10, true},
		"exactly enough":   {100, 100, true},
		"insufficient gas": {10, 100, false},
		"negative request": {100, -1, false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := &context{gas: test.available}
			if got := c.useGas(test.required); got != test.want {
				t.Errorf("useGas(%d) with %d available = %v, want %v", test.required, test.available, got, test.want)
			}
			if test.want && c.gas != test.available-test.required {
				t.Errorf("unexpected remaining gas: %d", c.gas)
			}
			if !test.want && c.status != OUT_OF_GAS {
				t.Errorf("expected status OUT_OF_GAS, got %v", c.status)
			}
		})
	}
}

func TestContext_SignalError_SetsErrorStatus(t *testing.T) {
	c := &context{status: RUNNING}
	c.SignalError(errInvalidJump)
	if c.status != ERROR {
		t.Errorf("expected status ERROR, got %v", c.status)
	}
}

func TestContext_RevisionPredicates(t *testing.T) {
	tests := map[string]struct {
		revision                                      ember.Revision
		berlin, london, shanghai, cancun bool
	}{
		"istanbul": {ember.R07_Istanbul, false, false, false, false},
		"berlin":   {ember.R09_Berlin, true, false, false, false},
		"london":   {ember.R10_London, true, true, false, false},
		"shanghai": {ember.R12_Shanghai, true, true, true, false},
		"cancun":   {ember.R13_Cancun, true, true, true, true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := &context{revision: test.revision}
			if got := c.isBerlin(); got != test.berlin {
				t.Errorf("isBerlin() = %v, want %v", got, test.berlin)
			}
			if got := c.isLondon(); got != test.london {
				t.Errorf("isLondon() = %v, want %v", got, test.london)
			}
			if got := c.isShanghai(); got != test.shanghai {
				t.Errorf("isShanghai() = %v, want %v", got, test.shanghai)
			}
			if got := c.isCancun(); got != test.cancun {
				t.Errorf("isCancun() = %v, want %v", got, test.cancun)
			}
		})
	}
}
