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

import "github.com/emberchain/ember/go/ember"

const (
	errGasUintOverflow       = ember.ConstError("gas uint64 overflow")
	errInvalidCode           = ember.ConstError("invalid code")
	errInvalidJump           = ember.ConstError("invalid jump destination")
	errOutOfGas              = ember.ConstError("out of gas")
	errReturnDataOutOfBounds = ember.ConstError("return data out of bounds")
	errStackOverflow         = ember.ConstError("stack overflow")
	errStackUnderflow        = ember.ConstError("stack underflow")
	errWriteProtection       = ember.ConstError("write protection")
	errInitCodeTooLarge      = ember.ConstError("init code larger than allowed")
)
