// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package atlas

import "github.com/emberchain/ember/go/ember"

// frame is one call or create on the explicit stack frameDriver.run walks.
// It records everything needed to settle its own outcome once it finishes,
// and, while suspended, the pending nested call plus a handle to resume it.
type frame struct {
	depth          int
	static         bool
	kind           ember.CallKind
	createdAddress ember.Address
	snapshot       ember.Snapshot
	hasSnapshot    bool
	precompiled    bool

	stepper ember.Resumable // non-nil while this frame waits on a nested call
	step    ember.Step      // the pending call described by stepper

	finished bool
	outcome  ember.CallResult
	err      error
}

// frameDriver carries out a call or create, and any calls or creates it in
// turn triggers, as an explicit LIFO stack of frame values rather than as
// Go call-stack recursion. Depth is bounded by MaxRecursiveDepth the same
// way a recursive implementation would bound it, but a transaction touching
// the full 1024-deep limit costs one slice growth, not 1024 stack frames.
type frameDriver struct {
	ctx                   ember.TransactionContext
	interpreter           ember.Interpreter
	blockParameters       ember.BlockParameters
	transactionParameters ember.TransactionParameters
}

// run drives root, and every frame it spawns, to completion and reports the
// outcome of root. A frame that suspends on a call or create gets a child
// frame pushed above it via enter; a finished frame is popped and used to
// resume whatever frame is now on top, until the stack empties.
func (d *frameDriver) run(root *frame) (ember.CallResult, error) {
	stack := []*frame{root}
	for {
		top := stack[len(stack)-1]
		if top.finished {
			d.settle(top)
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return top.outcome, top.err
			}
			parent := stack[len(stack)-1]
			d.resume(parent, top.outcome, top.err)
			continue
		}
		child := d.enter(top.step.CallKind, top.step.Call, top.depth+1, top.static)
		stack = append(stack, child)
	}
}

// enter performs the bookkeeping common to every call or create (depth
// check, value transfer, CREATE/CREATE2 address derivation and collision
// check, precompile dispatch) and then starts the interpreter: either as a
// frame that can suspend on its own nested calls, or, for an interpreter
// incapable of suspending, by running it to completion in one step.
func (d *frameDriver) enter(kind ember.CallKind, parameters ember.CallParameters, depth int, static bool) *frame {
	f := &frame{depth: depth, static: static, kind: kind}

	if depth > MaxRecursiveDepth {
		f.finished = true
		return f
	}

	if !canTransferValue(d.ctx, parameters.Value, parameters.Sender, &parameters.Recipient) {
		f.finished = true
		return f
	}

	var codeHash ember.Hash
	var code ember.Code
	recipient := parameters.Recipient
	var createdAddress ember.Address

	switch kind {
	case ember.DelegateCall, ember.CallCode:
		code = d.ctx.GetCode(parameters.CodeAddress)
		codeHash = d.ctx.GetCodeHash(parameters.CodeAddress)
	case ember.Create, ember.Create2:
		code = ember.Code(parameters.Input)
		codeHash = hashCode(code)

		senderNonce := d.ctx.GetNonce(parameters.Sender)
		createdAddress = createAddress(kind, parameters.Sender, senderNonce, parameters.Salt, codeHash)
		if err := incrementNonce(d.ctx, parameters.Sender); err != nil {
			f.finished = true
			f.err = err
			return f
		}

		if d.ctx.GetNonce(createdAddress) != 0 || d.ctx.GetCodeHash(createdAddress) != (ember.Hash{}) {
			f.finished = true
			return f
		}
		recipient = createdAddress
	default:
		code = d.ctx.GetCode(parameters.Recipient)
		codeHash = d.ctx.GetCodeHash(parameters.Recipient)
	}

	if kind == ember.StaticCall {
		static = true
	}
	f.static = static
	f.createdAddress = createdAddress

	f.snapshot = d.ctx.CreateSnapshot()
	f.hasSnapshot = true
	if kind == ember.Create || kind == ember.Create2 {
		d.ctx.SetNonce(createdAddress, 1)
	}
	if err := transferValue(d.ctx, parameters.Value, parameters.Sender, recipient); err != nil {
		d.ctx.RestoreSnapshot(f.snapshot)
		f.finished = true
		return f
	}

	output, isPrecompiled := handlePrecompiledContract(d.blockParameters.Revision, parameters.Input, recipient, parameters.Gas)
	if isPrecompiled {
		f.finished = true
		f.precompiled = true
		f.outcome = output
		return f
	}

	interpreterParameters := ember.Parameters{
		BlockParameters:       d.blockParameters,
		TransactionParameters: d.transactionParameters,
		Context: runContext{
			d.ctx,
			d.interpreter,
			d.blockParameters,
			d.transactionParameters,
			depth,
			static,
		},
		Kind:      kind,
		Static:    static,
		Depth:     depth,
		Gas:       parameters.Gas,
		Recipient: recipient,
		Sender:    parameters.Sender,
		Input:     parameters.Input,
		Value:     parameters.Value,
		CodeHash:  &codeHash,
		Code:      code,
	}

	if stepper, ok := d.interpreter.(ember.FrameStepper); ok {
		step, err := stepper.StartFrame(interpreterParameters)
		d.apply(f, step, err)
		return f
	}

	result, err := d.interpreter.Run(interpreterParameters)
	f.finished = true
	f.err = err
	f.outcome = ember.CallResult{
		Output:         result.Output,
		GasLeft:        result.GasLeft,
		GasRefund:      result.GasRefund,
		Success:        result.Success,
		CreatedAddress: createdAddress,
	}
	return f
}

// resume supplies a just-finished child's outcome to f, which was waiting
// on exactly that call or create.
func (d *frameDriver) resume(f *frame, result ember.CallResult, err error) {
	step, stepErr := f.stepper.Resume(result, err)
	f.stepper = nil
	d.apply(f, step, stepErr)
}

func (d *frameDriver) apply(f *frame, step ember.Step, err error) {
	if err != nil {
		f.finished = true
		f.err = err
		return
	}
	if step.Action == ember.ActionDone {
		f.finished = true
		f.outcome = ember.CallResult{
			Output:         step.Result.Output,
			GasLeft:        step.Result.GasLeft,
			GasRefund:      step.Result.GasRefund,
			Success:        step.Result.Success,
			CreatedAddress: f.createdAddress,
		}
		return
	}
	f.step = step
	f.stepper = step.Frame
}

// settle applies the conclusion of a finished frame to world state: a
// failed call or create rolls back to the snapshot taken before it ran, and
// a successful create deploys the code it returned. A precompile dispatch
// never touches its snapshot either way, matching the fact that it never
// entered the interpreter in the first place.
func (d *frameDriver) settle(f *frame) {
	if !f.hasSnapshot || f.precompiled {
		return
	}
	if f.err != nil || !f.outcome.Success {
		d.ctx.RestoreSnapshot(f.snapshot)
		return
	}
	if f.kind == ember.Create || f.kind == ember.Create2 {
		d.ctx.SetCode(f.createdAddress, ember.Code(f.outcome.Output))
	}
}
