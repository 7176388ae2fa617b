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

	"github.com/emberchain/ember/go/ember"
)

const (
	TxGas                     = 21_000
	TxGasContractCreation     = 53_000
	TxDataNonZeroGasEIP2028   = 16
	TxDataZeroGasEIP2028      = 4
	TxAccessListAddressGas    = 2400
	TxAccessListStorageKeyGas = 1900

	CallValueTransferGas = ember.Gas(9000)
	CreateGas            = ember.Gas(32000)
	CreateDataGas        = ember.Gas(200)
	MemoryGas            = ember.Gas(3)
	SstoreSetGasEIP2200  = ember.Gas(20000)

	MaxRecursiveDepth = 1024 // Maximum depth of the call/create frame stack.
)

func init() {
	ember.RegisterProcessorFactory("atlas", newProcessor)
}

func newProcessor(interpreter ember.Interpreter) ember.Processor {
	return &processor{
		interpreter: interpreter,
	}
}

// processor turns a single transaction into a root call or create, charges
// and refunds gas around it, and assembles the resulting receipt. The call
// itself, along with everything it triggers, is carried out by a runContext
// backed by an explicit frame stack rather than host-language recursion.
type processor struct {
	interpreter ember.Interpreter
}

func (p *processor) Run(
	blockParameters ember.BlockParameters,
	transaction ember.Transaction,
	context ember.TransactionContext,
) (ember.Receipt, error) {
	failed := ember.Receipt{
		Success: false,
		GasUsed: transaction.GasLimit,
	}

	if err := buyGas(transaction, context); err != nil {
		return ember.Receipt{}, nil
	}

	gasAfterIntrinsic, ok := deductIntrinsicGas(transaction)
	if !ok {
		return failed, nil
	}

	if err := handleNonce(transaction, context); err != nil {
		return failed, nil
	}

	root := runContext{
		context,
		p.interpreter,
		blockParameters,
		ember.TransactionParameters{
			Origin:     transaction.Sender,
			GasPrice:   transaction.GasPrice,
			BlobHashes: []ember.Hash{},
		},
		0,
		false,
	}

	kind := callKind(transaction)
	result, err := root.Call(kind, callParameters(transaction, gasAfterIntrinsic))
	if err != nil {
		return failed, err
	}

	gasLeft := calculateGasLeft(transaction, result, blockParameters.Revision)
	refundGas(transaction, context, gasLeft)

	var createdAddress *ember.Address
	if kind == ember.Create {
		createdAddress = &result.CreatedAddress
	}

	return ember.Receipt{
		Success:         result.Success,
		GasUsed:         transaction.GasLimit - gasLeft,
		ContractAddress: createdAddress,
		Output:          result.Output,
		Logs:            context.GetLogs(),
	}, nil
}

// deductIntrinsicGas reports the gas left after charging for the fixed
// per-transaction cost and the calldata it carries; ok is false if the
// transaction's gas limit does not even cover that intrinsic cost.
func deductIntrinsicGas(transaction ember.Transaction) (gasLeft ember.Gas, ok bool) {
	intrinsicGas := setupGasBilling(transaction)
	if transaction.GasLimit < intrinsicGas {
		return 0, false
	}
	return transaction.GasLimit - intrinsicGas, true
}

func callKind(transaction ember.Transaction) ember.CallKind {
	if transaction.Recipient == nil {
		return ember.Create
	}
	return ember.Call
}

func callParameters(transaction ember.Transaction, gas ember.Gas) ember.CallParameters {
	callParameters := ember.CallParameters{
		Sender: transaction.Sender,
		Input:  transaction.Input,
		Value:  transaction.Value,
		Gas:    gas,
	}
	if transaction.Recipient != nil {
		callParameters.Recipient = *transaction.Recipient
	}
	return callParameters
}

func calculateGasLeft(transaction ember.Transaction, result ember.CallResult, revision ember.Revision) ember.Gas {
	gasLeft := result.GasLeft
	// 10% of remaining gas is charged for non-internal transactions
	if transaction.Sender != (ember.Address{}) {
		gasLeft -= gasLeft / 10
	}

	if result.Success {
		gasUsed := transaction.GasLimit - gasLeft
		refund := result.GasRefund

		maxRefund := ember.Gas(0)
		if revision < ember.R10_London {
			// Before EIP-3529: refunds were capped to gasUsed / 2
			maxRefund = gasUsed / 2
		} else {
			// After EIP-3529: refunds are capped to gasUsed / 5
			maxRefund = gasUsed / 5
		}

		if refund > maxRefund {
			refund = maxRefund
		}
		gasLeft += refund
	}

	return gasLeft
}

func refundGas(transaction ember.Transaction, context ember.TransactionContext, gasLeft ember.Gas) {
	refundValue := transaction.GasPrice.Scale(uint64(gasLeft))
	senderBalance := context.GetBalance(transaction.Sender)
	senderBalance = ember.Add(senderBalance, refundValue)
	context.SetBalance(transaction.Sender, senderBalance)
}

func setupGasBilling(transaction ember.Transaction) ember.Gas {
	var gas ember.Gas
	if transaction.Recipient == nil {
		gas = TxGasContractCreation
	} else {
		gas = TxGas
	}

	if len(transaction.Input) > 0 {
		nonZeroBytes := ember.Gas(0)
		for _, inputByte := range transaction.Input {
			if inputByte != 0 {
				nonZeroBytes++
			}
		}
		zeroBytes := ember.Gas(len(transaction.Input)) - nonZeroBytes
		gas += zeroBytes * TxDataZeroGasEIP2028
		gas += nonZeroBytes * TxDataNonZeroGasEIP2028
	}

	// No overflow check for the gas computation is required although it is performed in the
	// opera version. The overflow check would be triggered in a worst case with an input
	// greater than 2^64 / 16 - 53000 = ~10^18, which is not possible with real world hardware
	if transaction.AccessList != nil {
		gas += ember.Gas(len(transaction.AccessList)) * TxAccessListAddressGas

		// charge for each storage key
		for _, accessTuple := range transaction.AccessList {
			gas += ember.Gas(len(accessTuple.Keys)) * TxAccessListStorageKeyGas
		}
	}

	return ember.Gas(gas)
}

func handleNonce(transaction ember.Transaction, context ember.TransactionContext) error {
	stateNonce := context.GetNonce(transaction.Sender)
	messageNonce := transaction.Nonce
	if messageNonce != stateNonce {
		return fmt.Errorf("nonce mismatch: %v != %v", messageNonce, stateNonce)
	}
	if transaction.Recipient != nil {
		context.SetNonce(transaction.Sender, stateNonce+1)
	}
	return nil
}

func buyGas(transaction ember.Transaction, context ember.TransactionContext) error {
	gas := transaction.GasPrice.Scale(uint64(transaction.GasLimit))

	// Buy gas
	senderBalance := context.GetBalance(transaction.Sender)
	if senderBalance.Cmp(gas) < 0 {
		return fmt.Errorf("insufficient balance: %v < %v", senderBalance, gas)
	}

	senderBalance = ember.Sub(senderBalance, gas)
	context.SetBalance(transaction.Sender, senderBalance)

	return nil
}
