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
	"github.com/emberchain/ember/go/ember"
	"github.com/holiman/uint256"
)

// status describes the execution state of a running context. Execution
// proceeds while RUNNING and stops the moment any other value is assigned.
type status byte

const (
	RUNNING status = iota
	STOPPED
	REVERTED
	RETURNED
	SUICIDED
	INVALID_INSTRUCTION
	OUT_OF_GAS
	MAX_INIT_CODE_SIZE_EXCEEDED
	ERROR
	// AWAITING_CALL means a CALL-family or CREATE-family instruction has
	// suspended this context: the pending* fields below describe the
	// nested call, and execution will not advance further until one of
	// the resume* helpers is invoked with its outcome.
	AWAITING_CALL
)

// context carries the full mutable state of a single code execution: the
// program counter and code being stepped through, the stack and memory, the
// remaining gas and accrued refund, and the status the run terminates with.
type context struct {
	// Input
	params   ember.Parameters
	context  ember.RunContext
	code     []byte
	jumpdests jumpdests
	revision ember.Revision

	// Execution state
	pc     int64
	gas    ember.Gas
	refund ember.Gas
	stack  *stack
	memory *Memory
	status status

	// Intermediate data, populated by CALL/CREATE family instructions.
	return_data []byte

	// Populated by RETURN/REVERT, consumed after the run loop exits.
	result_offset uint256.Int
	result_size   uint256.Int

	// Populated when a CALL-family or CREATE-family instruction suspends
	// the context (status == AWAITING_CALL), consumed by resumeGenericCall
	// or resumeCreate once the driver supplies the nested call's outcome.
	pendingCreate    bool
	pendingKind      ember.CallKind
	pendingCall      ember.CallParameters
	pendingRetOffset uint64
	pendingRetSize   uint64

	// Configuration
	withShaCache bool
}

// UseGas deducts amount from the remaining gas, failing and setting status to
// OUT_OF_GAS if there isn't enough (or amount is negative).
func (c *context) UseGas(amount ember.Gas) bool {
	return c.useGas(amount)
}

func (c *context) useGas(amount ember.Gas) bool {
	if amount < 0 || c.gas < amount {
		c.status = OUT_OF_GAS
		return false
	}
	c.gas -= amount
	return true
}

// SignalError aborts the running context due to err, which is otherwise
// opaque to the caller: the EVM does not distinguish between error causes in
// its result, only that execution failed.
func (c *context) SignalError(err error) {
	c.signalError(err)
}

func (c *context) signalError(error) {
	c.status = ERROR
}

func (c *context) isBerlin() bool {
	return c.revision.IsEnabled(ember.FeatureAccessLists)
}

func (c *context) isLondon() bool {
	return c.revision.IsEnabled(ember.FeatureRefundCapFifth)
}

func (c *context) isShanghai() bool {
	return c.revision.IsEnabled(ember.FeaturePush0)
}

func (c *context) isCancun() bool {
	return c.revision.IsEnabled(ember.FeatureTransientStorage)
}
