// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package engine implements a direct, bytecode-stepping EVM interpreter: a
// straightforward decode-dispatch-execute loop over the raw contract code,
// as opposed to an interpreter operating over a pre-converted intermediate
// representation.
package engine

import "github.com/emberchain/ember/go/ember"

func init() {
	ember.RegisterInterpreter("ember", &Interpreter{})
	ember.RegisterInterpreter("ember-no-sha-cache", &Interpreter{noShaCache: true})
}

// newestSupportedRevision is the newest fork this interpreter knows how to
// execute; requests for anything later are rejected outright.
const newestSupportedRevision = ember.R14_Prague

// Interpreter implements ember.Interpreter by stepping directly over raw
// EVM bytecode, consulting a cached jump-destination analysis for JUMP and
// JUMPI validation.
type Interpreter struct {
	noShaCache bool
}

func (e *Interpreter) Run(params ember.Parameters) (ember.Result, error) {
	if params.Revision > newestSupportedRevision {
		return ember.Result{}, &ember.ErrUnsupportedRevision{Revision: params.Revision}
	}
	return Run(params, !e.noShaCache)
}

// StartFrame implements ember.FrameStepper: it steps params.Code until it
// either completes or hits its first nested call or create, without ever
// invoking params.Context.Call itself. A caller driving an explicit frame
// stack uses this (and the returned Step's Resume method) in place of Run.
func (e *Interpreter) StartFrame(params ember.Parameters) (ember.Step, error) {
	if params.Revision > newestSupportedRevision {
		return ember.Step{}, &ember.ErrUnsupportedRevision{Revision: params.Revision}
	}
	_, step, err := startFrame(params, !e.noShaCache)
	return step, err
}
