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
	"github.com/emberchain/ember/go/ember"
	"github.com/ethereum/go-ethereum/common"
	geth "github.com/ethereum/go-ethereum/core/vm"
)

// handlePrecompiledContract checks whether address names one of the standard
// precompiled contracts active under revision and, if so, executes it
// instead of entering the interpreter.
func handlePrecompiledContract(revision ember.Revision, input ember.Data, address ember.Address, gas ember.Gas) (ember.CallResult, bool) {
	contract, ok := getPrecompiledContract(address, revision)
	if !ok {
		return ember.CallResult{}, false
	}
	gasCost := contract.RequiredGas(input)
	if gas < ember.Gas(gasCost) {
		return ember.CallResult{}, true
	}
	gas -= ember.Gas(gasCost)
	output, err := contract.Run(input)

	return ember.CallResult{
		Success: err == nil, // precompiled contracts only return errors on invalid input
		Output:  output,
		GasLeft: gas,
	}, true
}

func getPrecompiledContract(address ember.Address, revision ember.Revision) (geth.PrecompiledContract, bool) {
	var precompiles map[common.Address]geth.PrecompiledContract
	switch revision {
	case ember.R13_Cancun:
		precompiles = geth.PrecompiledContractsCancun
	case ember.R12_Shanghai, ember.R11_Paris, ember.R10_London, ember.R09_Berlin:
		precompiles = geth.PrecompiledContractsBerlin
	default: // Istanbul is the oldest supported revision supported by Sonic
		precompiles = geth.PrecompiledContractsIstanbul
	}
	contract, ok := precompiles[common.Address(address)]
	return contract, ok
}
