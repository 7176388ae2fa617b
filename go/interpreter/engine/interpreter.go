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
)

// Run executes params.Code against params in the world state reachable
// through params.Context and returns the outcome. A nil error indicates the
// code ran to completion (possibly with a revert or any other non-success
// status reported through the returned Result); a non-nil error indicates
// the interpreter itself failed to process the program, in which case the
// result is undefined.
//
// Run never suspends: any nested call or create it encounters is carried
// out immediately by invoking params.Context.Call, so it recurses through
// Go's call stack like a plain tree-walking interpreter would. It exists
// for callers that only ever need a single, self-contained execution (unit
// tests driving raw bytecode, for instance) and have no frame stack of
// their own to thread a suspension through. Production call/create
// orchestration uses StartFrame instead, which never recurses.
func Run(params ember.Parameters, withShaCache bool) (ember.Result, error) {
	f, step, err := startFrame(params, withShaCache)
	if err != nil || f == nil {
		return step.Result, err
	}
	for step.Action != ember.ActionDone {
		callResult, callErr := params.Context.Call(step.CallKind, step.Call)
		step, err = f.Resume(callResult, callErr)
		if err != nil {
			return ember.Result{}, err
		}
	}
	return step.Result, nil
}

// startFrame begins executing params.Code and steps it until it either
// completes or suspends on its first nested call or create. f is nil once
// the frame completed within this call (no further Resume is possible).
func startFrame(params ember.Parameters, withShaCache bool) (f *frame, step ember.Step, err error) {
	if len(params.Code) == 0 {
		return nil, ember.Step{
			Action: ember.ActionDone,
			Result: ember.Result{Success: true, GasLeft: params.Gas},
		}, nil
	}

	c := &context{
		params:       params,
		context:      params.Context,
		code:         params.Code,
		jumpdests:    getJumpdests(params.Code, params.CodeHash),
		revision:     params.Revision,
		gas:          params.Gas,
		stack:        NewStack(),
		memory:       NewMemory(),
		status:       RUNNING,
		withShaCache: withShaCache,
	}

	run(c)
	f = &frame{c: c}
	step, err = f.currentStep()
	if step.Action == ember.ActionDone {
		f = nil
	}
	return f, step, err
}

// frame lets a driver step a single code execution one suspension at a
// time: Resume supplies the outcome of the pending call or create and runs
// the context forward until it suspends again or concludes.
type frame struct {
	c *context
}

func (f *frame) Resume(result ember.CallResult, callErr error) (ember.Step, error) {
	c := f.c
	if c.pendingCreate {
		resumeCreate(c, result, callErr)
	} else {
		resumeGenericCall(c, result, callErr)
	}
	if c.status == RUNNING {
		c.pc++
		run(c)
	}
	return f.currentStep()
}

func (f *frame) currentStep() (ember.Step, error) {
	c := f.c
	if c.status == AWAITING_CALL {
		action := ember.ActionCall
		if c.pendingCreate {
			action = ember.ActionCreate
		}
		return ember.Step{
			Action:   action,
			CallKind: c.pendingKind,
			Call:     c.pendingCall,
			Frame:    f,
		}, nil
	}

	ReturnStack(c.stack)
	result, err := generateResult(c)
	return ember.Step{Action: ember.ActionDone, Result: result}, err
}

func generateResult(c *context) (ember.Result, error) {
	output, err := getOutput(c)
	if err != nil {
		return ember.Result{Success: false}, nil
	}

	switch c.status {
	case STOPPED, SUICIDED:
		return ember.Result{Success: true, GasLeft: c.gas, GasRefund: c.refund}, nil
	case RETURNED:
		return ember.Result{Success: true, Output: output, GasLeft: c.gas, GasRefund: c.refund}, nil
	case REVERTED:
		return ember.Result{Success: false, Output: output, GasLeft: c.gas}, nil
	case INVALID_INSTRUCTION, OUT_OF_GAS, MAX_INIT_CODE_SIZE_EXCEEDED, ERROR:
		return ember.Result{Success: false}, nil
	default:
		return ember.Result{}, fmt.Errorf("unexpected interpreter status: %v", c.status)
	}
}

func getOutput(c *context) ([]byte, error) {
	if c.status != RETURNED && c.status != REVERTED {
		return nil, nil
	}

	size, overflow := c.result_size.Uint64WithOverflow()
	if overflow {
		return nil, errGasUintOverflow
	}
	if size == 0 {
		return nil, nil
	}

	offset, overflow := c.result_offset.Uint64WithOverflow()
	if overflow {
		return nil, errGasUintOverflow
	}

	if err := c.memory.EnsureCapacity(offset, size, c); err != nil {
		return nil, err
	}
	res := make([]byte, size)
	c.memory.CopyData(offset, res)
	return res, nil
}

// isWriteInstruction reports whether op mutates state in a way that is
// forbidden inside a static call. CALL is handled separately by opCall,
// which only rejects a non-zero value transfer.
func isWriteInstruction(op OpCode) bool {
	switch op {
	case SSTORE, TSTORE, LOG0, LOG1, LOG2, LOG3, LOG4, CREATE, CREATE2, SELFDESTRUCT:
		return true
	}
	return false
}

func checkStackBoundary(c *context, op OpCode) error {
	length := c.stack.len()
	boundary := staticStackBoundary[op]
	if length < boundary.stackMin {
		c.status = ERROR
		return errStackUnderflow
	}
	if length > boundary.stackMax {
		c.status = ERROR
		return errStackOverflow
	}
	return nil
}

func run(c *context) {
	for c.status == RUNNING {
		if c.pc >= int64(len(c.code)) {
			opStop(c)
			return
		}

		op := OpCode(c.code[c.pc])

		if !IsValid(op) {
			c.status = INVALID_INSTRUCTION
			return
		}

		if checkStackBoundary(c, op) != nil {
			return
		}

		if c.params.Static && isWriteInstruction(op) {
			c.status = ERROR
			return
		}

		if !c.useGas(getStaticGasPrice(op, c.revision)) {
			return
		}

		execute(c, op)
		if c.status != RUNNING {
			return
		}
		c.pc++
	}
}

func execute(c *context, op OpCode) {
	switch op {
	case STOP:
		opStop(c)
	case ADD:
		opAdd(c)
	case MUL:
		opMul(c)
	case SUB:
		opSub(c)
	case DIV:
		opDiv(c)
	case SDIV:
		opSDiv(c)
	case MOD:
		opMod(c)
	case SMOD:
		opSMod(c)
	case ADDMOD:
		opAddMod(c)
	case MULMOD:
		opMulMod(c)
	case EXP:
		opExp(c)
	case SIGNEXTEND:
		opSignExtend(c)
	case LT:
		opLt(c)
	case GT:
		opGt(c)
	case SLT:
		opSlt(c)
	case SGT:
		opSgt(c)
	case EQ:
		opEq(c)
	case ISZERO:
		opIszero(c)
	case AND:
		opAnd(c)
	case OR:
		opOr(c)
	case XOR:
		opXor(c)
	case NOT:
		opNot(c)
	case BYTE:
		opByte(c)
	case SHL:
		opShl(c)
	case SHR:
		opShr(c)
	case SAR:
		opSar(c)
	case SHA3:
		opSha3(c)
	case ADDRESS:
		opAddress(c)
	case BALANCE:
		opBalance(c)
	case ORIGIN:
		opOrigin(c)
	case CALLER:
		opCaller(c)
	case CALLVALUE:
		opCallvalue(c)
	case CALLDATALOAD:
		opCallDataload(c)
	case CALLDATASIZE:
		opCallDatasize(c)
	case CALLDATACOPY:
		opCallDataCopy(c)
	case CODESIZE:
		opCodeSize(c)
	case CODECOPY:
		opCodeCopy(c)
	case GASPRICE:
		opGasPrice(c)
	case EXTCODESIZE:
		opExtcodesize(c)
	case EXTCODECOPY:
		opExtCodeCopy(c)
	case RETURNDATASIZE:
		opReturnDataSize(c)
	case RETURNDATACOPY:
		opReturnDataCopy(c)
	case EXTCODEHASH:
		opExtcodehash(c)
	case BLOCKHASH:
		opBlockhash(c)
	case COINBASE:
		opCoinbase(c)
	case TIMESTAMP:
		opTimestamp(c)
	case NUMBER:
		opNumber(c)
	case PREVRANDAO:
		opPrevRandao(c)
	case GASLIMIT:
		opGasLimit(c)
	case CHAINID:
		opChainId(c)
	case SELFBALANCE:
		opSelfbalance(c)
	case BASEFEE:
		opBaseFee(c)
	case BLOBHASH:
		opBlobHash(c)
	case BLOBBASEFEE:
		opBlobBaseFee(c)
	case POP:
		opPop(c)
	case MLOAD:
		opMload(c)
	case MSTORE:
		opMstore(c)
	case MSTORE8:
		opMstore8(c)
	case SLOAD:
		opSload(c)
	case SSTORE:
		opSstore(c)
	case JUMP:
		opJump(c)
	case JUMPI:
		opJumpi(c)
	case PC:
		opPc(c)
	case MSIZE:
		opMsize(c)
	case GAS:
		opGas(c)
	case JUMPDEST:
		// marks a valid jump target, no-op otherwise
	case TLOAD:
		opTload(c)
	case TSTORE:
		opTstore(c)
	case MCOPY:
		opMcopy(c)
	case PUSH0:
		opPush0(c)
	case PUSH1:
		opPush1(c)
	case PUSH2:
		opPush2(c)
	case PUSH3:
		opPush3(c)
	case PUSH4:
		opPush4(c)
	case PUSH32:
		opPush32(c)
	case CREATE:
		opCreate(c)
	case CALL:
		opCall(c)
	case CALLCODE:
		opCallCode(c)
	case RETURN:
		opReturn(c)
	case DELEGATECALL:
		opDelegateCall(c)
	case CREATE2:
		opCreate2(c)
	case STATICCALL:
		opStaticCall(c)
	case REVERT:
		opRevert(c)
	case INVALID:
		c.status = INVALID_INSTRUCTION
	case SELFDESTRUCT:
		opSelfdestruct(c)
	default:
		switch {
		case PUSH5 <= op && op <= PUSH31:
			opPush(c, int(op-PUSH1)+1)
		case DUP1 <= op && op <= DUP16:
			opDup(c, int(op-DUP1))
		case SWAP1 <= op && op <= SWAP16:
			opSwap(c, int(op-SWAP1))
		case LOG0 <= op && op <= LOG4:
			opLog(c, int(op-LOG0))
		default:
			c.status = INVALID_INSTRUCTION
		}
	}
}
