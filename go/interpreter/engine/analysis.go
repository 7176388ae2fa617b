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
	"fmt"

	"github.com/emberchain/ember/go/ember"
	lru "github.com/hashicorp/golang-lru/v2"
)

// jumpdests is a bitmap over a code buffer, one bit per byte, marking which
// positions are legal JUMP/JUMPI targets: those holding a JUMPDEST opcode
// that is not itself embedded in the immediate data of a preceding PUSH.
type jumpdests []bool

func analyzeJumpdests(code []byte) jumpdests {
	dests := make(jumpdests, len(code))
	for pc := 0; pc < len(code); {
		op := OpCode(code[pc])
		if op == JUMPDEST {
			dests[pc] = true
			pc++
			continue
		}
		if PUSH1 <= op && op <= PUSH32 {
			pc += int(op-PUSH1) + 2
			continue
		}
		pc++
	}
	return dests
}

const jumpdestCacheCapacity = 10_000 // roomy enough for the working set of contracts in a running chain

var jumpdestCache *lru.Cache[ember.Hash, jumpdests]

func init() {
	cache, err := lru.New[ember.Hash, jumpdests](jumpdestCacheCapacity)
	if err != nil {
		panic(fmt.Errorf("failed to create jumpdest cache: %v", err))
	}
	jumpdestCache = cache
}

// getJumpdests returns the jump-destination bitmap for code, reusing a cached
// analysis keyed by codeHash when one is available. Pass a nil codeHash (as
// done for unsaved init code) to force a fresh, uncached analysis.
func getJumpdests(code []byte, codeHash *ember.Hash) jumpdests {
	if codeHash == nil {
		return analyzeJumpdests(code)
	}
	if cached, ok := jumpdestCache.Get(*codeHash); ok {
		return cached
	}
	dests := analyzeJumpdests(code)
	jumpdestCache.Add(*codeHash, dests)
	return dests
}
