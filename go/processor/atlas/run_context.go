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

import (
	"fmt"
	"math"

	"github.com/emberchain/ember/go/ember"

	// geth dependencies
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type runContext struct {
	ember.TransactionContext
	interpreter           ember.Interpreter
	blockParameters       ember.BlockParameters
	transactionParameters ember.TransactionParameters
	depth                 int
	static                bool
}

// Call carries out kind against parameters, along with every nested call or
// create it triggers, by handing off to a frameDriver. No Go call-stack
// recursion is involved beyond this one call: the driver walks an explicit
// stack of frames in a loop, however deep the call tree gets.
func (r runContext) Call(kind ember.CallKind, parameters ember.CallParameters) (ember.CallResult, error) {
	driver := &frameDriver{
		ctx:                   r.TransactionContext,
		interpreter:           r.interpreter,
		blockParameters:       r.blockParameters,
		transactionParameters: r.transactionParameters,
	}
	root := driver.enter(kind, parameters, r.depth, r.static)
	return driver.run(root)
}

func hashCode(code ember.Code) ember.Hash {
	return ember.Hash(crypto.Keccak256(code))
}

func createAddress(
	kind ember.CallKind,
	sender ember.Address,
	nonce uint64,
	salt ember.Hash,
	initHash ember.Hash,
) ember.Address {
	if kind == ember.Create {
		return ember.Address(crypto.CreateAddress(common.Address(sender), nonce))
	}
	return ember.Address(crypto.CreateAddress2(common.Address(sender), common.Hash(salt), initHash[:]))
}

// canTransferValue reports whether a transfer of value from sender to
// recipient would succeed, without mutating any balance. A nil recipient
// is treated as unknown (e.g. a contract-creation address not yet derived)
// and only the sender's balance is checked.
func canTransferValue(
	context ember.TransactionContext,
	value ember.Value,
	sender ember.Address,
	recipient *ember.Address,
) bool {
	if value == (ember.Value{}) {
		return true
	}

	senderBalance := context.GetBalance(sender)
	if recipient != nil && sender == *recipient {
		return senderBalance.Cmp(value) >= 0
	}
	if senderBalance.Cmp(value) < 0 {
		return false
	}
	if recipient == nil {
		return true
	}

	receiverBalance := context.GetBalance(*recipient)
	updatedBalance := ember.Add(receiverBalance, value)
	return updatedBalance.Cmp(receiverBalance) >= 0 && updatedBalance.Cmp(value) >= 0
}

// incrementNonce bumps an account's nonce by one, rejecting the operation
// rather than wrapping around once the nonce has reached its maximum value.
func incrementNonce(context ember.TransactionContext, address ember.Address) error {
	nonce := context.GetNonce(address)
	if nonce == math.MaxUint64 {
		return fmt.Errorf("nonce overflow for account %x", address)
	}
	context.SetNonce(address, nonce+1)
	return nil
}

func transferValue(
	context ember.TransactionContext,
	value ember.Value,
	sender ember.Address,
	recipient ember.Address,
) error {
	if value == (ember.Value{}) || sender == recipient {
		return nil
	}

	senderBalance := context.GetBalance(sender)
	if senderBalance.Cmp(value) < 0 {
		return fmt.Errorf("insufficient balance: %v < %v", senderBalance, value)
	}

	receiverBalance := context.GetBalance(recipient)
	updatedBalance := ember.Add(receiverBalance, value)
	if updatedBalance.Cmp(receiverBalance) < 0 || updatedBalance.Cmp(value) < 0 {
		return fmt.Errorf("overflow: %v + %v", receiverBalance, value)
	}

	senderBalance = ember.Sub(senderBalance, value)
	context.SetBalance(sender, senderBalance)
	context.SetBalance(recipient, updatedBalance)

	return nil
}
