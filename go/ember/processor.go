// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ember

//go:generate mockgen -source processor.go -destination processor_mock.go -package ember

// Processor is an interface for a component capable of executing transactions.
// Implementations are executing individual transactions to progress the world state
// of a chain. In particular, they handle the charging of gas fees, the checking of
// nonces, the execution of transactions using (potentially) recursive calls of contracts,
// the integration of precompiled contracts, and the creation of new contracts.
type Processor interface {
	// Run executes the transaction provided by the parameters in the specified context.
	Run(BlockParameters, Transaction, TransactionContext) (Receipt, error)
}

// TxKind distinguishes the envelope formats a Transaction may arrive in. Each
// kind layers additional fields on top of the legacy envelope; the processor
// gates the interpretation of those fields on the revision in force.
type TxKind int

const (
	// LegacyTx is the original nonce/gasPrice/gasLimit/to/value/data/v/r/s envelope.
	LegacyTx TxKind = iota
	// AccessListTx is EIP-2930 (type 1): adds chain_id and an access list.
	AccessListTx
	// DynamicFeeTx is EIP-1559 (type 2): replaces gas_price with a priority/max fee pair.
	DynamicFeeTx
	// BlobTx is EIP-4844 (type 3): adds a blob fee cap and blob versioned hashes.
	BlobTx
	// SetCodeTx is EIP-7702 (type 4): adds an authorization list granting EOA code.
	SetCodeTx
)

// AuthorizationTuple is one entry of an EIP-7702 authorization_list: a signed
// statement by `Authority` (recovered from chain_id/address/nonce/y_parity/r/s,
// not stored here since signature recovery is an external collaborator) that a
// designated EOA temporarily delegates execution to the code of Address.
type AuthorizationTuple struct {
	ChainID uint64
	Address Address
	Nonce   uint64
	// Authority is the address recovered from (y_parity, r, s); resolving the
	// signature itself is left to the caller, as other transaction signatures are.
	Authority Address
}

// Transaction summarizes the parameters of a transaction to be executed on a chain.
type Transaction struct {
	Kind       TxKind
	Sender     Address       // the sender of the transaction, paying for its execution
	Recipient  *Address      // the receiver of a transaction, nil if a new contract is to be created
	Nonce      uint64        // the nonce of the sender account, used to prevent replay attacks
	Input      Data          // the input data for the transaction
	Value      Value         // the amount of network currency to transfer to the recipient
	GasLimit   Gas           // the maximum amount of gas that can be used by the transaction
	GasPrice   Value         // the effective price of a unit of gas; for DynamicFeeTx and later this is the post-basefee effective price
	AccessList []AccessTuple // the list of accounts and storage slots expected to be accessed

	// EIP-1559 fields, meaningful for DynamicFeeTx, BlobTx and SetCodeTx.
	MaxFeePerGas         Value
	MaxPriorityFeePerGas Value

	// EIP-4844 fields, meaningful for BlobTx.
	MaxFeePerBlobGas    Value
	BlobVersionedHashes []Hash

	// EIP-7702 field, meaningful for SetCodeTx.
	AuthorizationList []AuthorizationTuple

	// IsSystemCall marks a designated system-call transaction (e.g. the
	// EIP-2935 history-buffer update or the EIP-4788 beacon-root update). Such
	// calls skip sender balance/nonce validation and fee deduction entirely;
	// they exist to let a block-level caller run a fixed contract with a
	// designated sender at the block boundary without inventing a funded account.
	IsSystemCall bool
}

// AccessTuple lists a range of accounts and storage slots expected to be accessed
// by a transaction. Those are intended as hints for the actual access pattern. However,
// transactions are not required to provide those, nor can completeness and/or correctness
// be assumed.
type AccessTuple struct {
	Address Address
	Keys    []Key
}

// ResultKind classifies how transaction execution concluded, mirroring the
// three state-affecting outcomes a frame or a transaction can reach.
type ResultKind int

const (
	// ResultSuccess means the top-level frame returned normally (STOP/RETURN
	// or implicit fallthrough), and its effects on the world state stand.
	ResultSuccess ResultKind = iota
	// ResultRevert means the top-level frame executed the REVERT opcode or an
	// equivalent validation failure inside CREATE; output is the returned
	// data and gas is charged only up to the point of the revert.
	ResultRevert
	// ResultHalt means the top-level frame terminated abnormally (out of
	// gas, invalid opcode, invalid jump, stack fault, ...); all gas allotted
	// to that frame is consumed and no output is produced.
	ResultHalt
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultRevert:
		return "revert"
	case ResultHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// Receipt summarizes the result of the execution of a transaction.
type Receipt struct {
	Success         bool     // false if the execution ended in a revert or halt, true otherwise
	Result          ResultKind
	HaltReason      string   // populated when Result == ResultHalt
	Output          Data     // the output produced by the transaction
	ContractAddress *Address // filled if a contract was created by this transaction
	GasUsed         Gas      // gas used by contract calls
	GasRefunded     Gas      // gas credited back to the caller at the effective gas price
	BlobGasUsed     Gas      // gas used for blob transactions
	Logs            []Log    // logs produced by the transaction
}
