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
	"bytes"
	"math"

	"github.com/emberchain/ember/go/ember"
	"github.com/holiman/uint256"
)

func opStop(c *context) {
	c.status = STOPPED
}

func opRevert(c *context) {
	c.result_offset = *c.stack.pop()
	c.result_size = *c.stack.pop()
	c.status = REVERTED
}

func opReturn(c *context) {
	c.result_offset = *c.stack.pop()
	c.result_size = *c.stack.pop()
	c.status = RETURNED
}

func opPc(c *context) {
	c.stack.pushEmpty().SetUint64(uint64(c.pc))
}

// checkJumpDest validates that pc lands on a JUMPDEST byte that was identified
// as a genuine jump target (and not, for example, a byte embedded in PUSH data)
// during analysis of the code.
func checkJumpDest(c *context, pc int64) {
	if pc < 0 || pc >= int64(len(c.jumpdests)) || !c.jumpdests[pc] {
		c.SignalError(errInvalidJump)
	}
}

func opJump(c *context) {
	destination := c.stack.pop()
	if !destination.IsUint64() || destination.Uint64() > math.MaxInt64 {
		c.SignalError(errInvalidJump)
		return
	}
	// Update the PC to the jump destination -1 since interpreter will increase PC by 1 afterward.
	dest := int64(destination.Uint64())
	c.pc = dest - 1
	checkJumpDest(c, dest)
}

func opJumpi(c *context) {
	destination := c.stack.pop()
	condition := c.stack.pop()
	if !condition.IsZero() {
		if !destination.IsUint64() || destination.Uint64() > math.MaxInt64 {
			c.SignalError(errInvalidJump)
			return
		}
		// Update the PC to the jump destination -1 since interpreter will increase PC by 1 afterward.
		dest := int64(destination.Uint64())
		c.pc = dest - 1
		checkJumpDest(c, dest)
	}
}

func opPop(c *context) {
	c.stack.pop()
}

// opPush reads the n bytes following the current instruction directly from the
// raw code buffer, zero-padding if the push runs past the end of the code.
func opPush(c *context, n int) {
	z := c.stack.pushEmpty()
	start := c.pc + 1
	end := start + int64(n)
	var value [32]byte
	if end <= int64(len(c.code)) {
		copy(value[:n], c.code[start:end])
	} else if start < int64(len(c.code)) {
		copy(value[:n], c.code[start:])
	}
	z.SetBytes(value[0:n])
	c.pc += int64(n)
}

func opPush0(c *context) {
	if c.isShanghai() {
		z := c.stack.pushEmpty()
		z[3], z[2], z[1], z[0] = 0, 0, 0, 0
	} else {
		c.status = INVALID_INSTRUCTION
	}
}

func opPush1(c *context) {
	opPush(c, 1)
}

func opPush2(c *context) {
	opPush(c, 2)
}

func opPush3(c *context) {
	opPush(c, 3)
}

func opPush4(c *context) {
	opPush(c, 4)
}

func opPush32(c *context) {
	opPush(c, 32)
}

func opDup(c *context, pos int) {
	c.stack.dup(pos)
}

func opSwap(c *context, pos int) {
	c.stack.swap(pos + 1)
}

func opMstore(c *context) {
	var addr = c.stack.pop()
	var value = c.stack.pop()

	offset, overflow := addr.Uint64WithOverflow()
	if overflow {
		c.status = ERROR
		return
	}
	if err := c.memory.SetWord(offset, value, c); err != nil {
		c.SignalError(err)
	}
}

func opMstore8(c *context) {
	var addr = c.stack.pop()
	var value = c.stack.pop()

	offset, overflow := addr.Uint64WithOverflow()
	if overflow {
		c.status = ERROR
		return
	}
	if err := c.memory.SetByte(offset, byte(value.Uint64()), c); err != nil {
		c.SignalError(err)
	}
}

func opMcopy(c *context) {

	if !c.isCancun() {
		c.status = INVALID_INSTRUCTION
		c.gas = 0
		return
	}

	var destAddr = c.stack.pop()
	var srcAddr = c.stack.pop()
	var sizeU256 = c.stack.pop()

	if sizeU256.IsZero() {
		// zero size skips expansions although offset may be off-bounds
		return
	}

	destOffset, destOverflow := destAddr.Uint64WithOverflow()
	srcOffset, srcOverflow := srcAddr.Uint64WithOverflow()
	if destOverflow || srcOverflow || !sizeU256.IsUint64() {
		c.status = ERROR
		return
	}

	size := sizeU256.Uint64()
	price := ember.Gas(3 * ember.SizeInWords(size))
	if !c.UseGas(price) {
		return
	}

	data, err := c.memory.GetSliceWithCapacityAndGas(srcOffset, size, c)
	if err != nil {
		return
	}
	if err := c.memory.SetWithCapacityAndGasCheck(destOffset, size, data, c); err != nil {
		return
	}
}

func opMload(c *context) {
	var trg = c.stack.peek()
	var addr = *trg

	if !addr.IsUint64() {
		c.SignalError(errGasUintOverflow)
		return
	}
	offset := addr.Uint64()
	if err := c.memory.CopyWord(offset, trg, c); err != nil {
		c.SignalError(err)
	}
}

func opMsize(c *context) {
	c.stack.pushEmpty().SetUint64(uint64(c.memory.Len()))
}

func opSstore(c *context) {
	key := ember.Key(c.stack.peek().Bytes32())
	value := ember.Word(c.stack.peekN(1).Bytes32())

	current := c.context.GetStorage(c.params.Recipient, key)
	//lint:ignore SA1019 deprecated, superseded once SetStorage's status return is wired through
	original := c.context.GetCommittedStorage(c.params.Recipient, key)

	cold := c.isBerlin() && c.context.AccessStorage(c.params.Recipient, key) == ember.ColdAccess

	result, err := gasSStore(c.gas, original, current, value, cold, c.revision)
	if err != nil {
		c.SignalError(err)
		return
	}
	if !c.UseGas(result.gas) {
		return
	}
	c.refund += result.refundDelta

	c.stack.pop()
	c.stack.pop()
	c.context.SetStorage(c.params.Recipient, key, value)
}

func opSload(c *context) {
	top := c.stack.peek()

	slot := ember.Key(top.Bytes32())
	if c.isBerlin() {
		cold := c.context.AccessStorage(c.params.Recipient, slot) == ember.ColdAccess
		cost := ember.Gas(WarmStorageReadCostEIP2929)
		if cold {
			cost = ColdSloadCostEIP2929
		}
		if !c.UseGas(cost) {
			return
		}
	}
	value := c.context.GetStorage(c.params.Recipient, slot)
	top.SetBytes32(value[:])
}

func opTstore(c *context) {
	if !c.isCancun() {
		c.status = INVALID_INSTRUCTION
		return
	}

	key := ember.Key(c.stack.pop().Bytes32())
	value := ember.Word(c.stack.pop().Bytes32())
	c.context.SetTransientStorage(c.params.Recipient, key, value)
}

func opTload(c *context) {
	if !c.isCancun() {
		c.status = INVALID_INSTRUCTION
		return
	}

	top := c.stack.peek()
	key := ember.Key(top.Bytes32())
	value := c.context.GetTransientStorage(c.params.Recipient, key)
	top.SetBytes32(value[:])
}

func opCaller(c *context) {
	c.stack.pushEmpty().SetBytes20(c.params.Sender[:])
}

func opCallvalue(c *context) {
	c.stack.pushEmpty().SetBytes32(c.params.Value[:])
}

func opCallDatasize(c *context) {
	size := len(c.params.Input)
	c.stack.pushEmpty().SetUint64(uint64(size))
}

func opCallDataload(c *context) {
	top := c.stack.peek()
	if !top.IsUint64() {
		top.Clear()
		return
	}

	offset := top.Uint64()
	input := c.params.Input
	var value [32]byte
	for i := 0; i < 32; i++ {
		pos := i + int(offset)
		if pos < 0 {
			top.Clear()
			return
		}
		if pos < len(input) {
			value[i] = input[pos]
		} else {
			value[i] = 0
		}
	}
	top.SetBytes(value[:])
}

func opCallDataCopy(c *context) {
	var (
		memOffset  = c.stack.pop()
		dataOffset = c.stack.pop()
		length     = c.stack.pop()
	)
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = 0xffffffffffffffff
	}

	memOffset64, overflow := memOffset.Uint64WithOverflow()
	if overflow {
		memOffset64 = 0xffffffffffffffff
	}

	length64, overflow := length.Uint64WithOverflow()
	if overflow || length64+31 < length64 {
		c.status = OUT_OF_GAS
		return
	}

	// Charge for the copy costs
	words := ember.SizeInWords(length64)
	price := ember.Gas(3 * words)
	if !c.UseGas(price) {
		return
	}

	if c.memory.EnsureCapacity(memOffset64, length64, c) != nil {
		return
	}

	if err := c.memory.Set(memOffset64, length64, getData(c.params.Input, dataOffset64, length64)); err != nil {
		c.SignalError(err)
	}
}

func opAnd(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.And(a, b)
}

func opOr(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Or(a, b)
}

func opNot(c *context) {
	a := c.stack.peek()
	a.Not(a)
}

func opXor(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Xor(a, b)
}

func opIszero(c *context) {
	top := c.stack.peek()
	if top.IsZero() {
		top.SetOne()
	} else {
		top.Clear()
	}
}

func opEq(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	res := a.Cmp(b)
	for i := range b {
		b[i] = 0
	}
	if res == 0 {
		b[0] = 1
	} else {
		b[0] = 0
	}
}

func opLt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	if a.Lt(b) {
		b.SetOne()
	} else {
		b.Clear()
	}
}

func opGt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	if a.Gt(b) {
		b.SetOne()
	} else {
		b.Clear()
	}
}

func opSlt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	if a.Slt(b) {
		b.SetOne()
	} else {
		b.Clear()
	}
}
func opSgt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	if a.Sgt(b) {
		b.SetOne()
	} else {
		b.Clear()
	}
}

func opShr(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	if a.LtUint64(256) {
		b.Rsh(b, uint(a.Uint64()))
	} else {
		b.Clear()
	}
}

func opShl(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	if a.LtUint64(256) {
		b.Lsh(b, uint(a.Uint64()))
	} else {
		b.Clear()
	}
}

func opSar(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	if a.GtUint64(256) {
		if b.Sign() >= 0 {
			b.Clear()
		} else {
			b.SetAllOne()
		}
		return
	}
	b.SRsh(b, uint(a.Uint64()))
}

func opSignExtend(c *context) {
	back, num := c.stack.pop(), c.stack.peek()
	num.ExtendSign(num, back)
}

func opByte(c *context) {
	th, val := c.stack.pop(), c.stack.peek()
	val.Byte(th)
}

func opAdd(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Add(a, b)
}

func opSub(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Sub(a, b)
}

func opMul(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Mul(a, b)
}

func opMulMod(c *context) {
	a := c.stack.pop()
	b := c.stack.pop()
	n := c.stack.peek()
	n.MulMod(a, b, n)
}

func opDiv(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Div(a, b)
}

func opSDiv(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.SDiv(a, b)
}

func opMod(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Mod(a, b)
}

func opAddMod(c *context) {
	a := c.stack.pop()
	b := c.stack.pop()
	n := c.stack.peek()
	n.AddMod(a, b, n)
}

func opSMod(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.SMod(a, b)
}

func opExp(c *context) {
	base, exponent := c.stack.pop(), c.stack.peek()
	if !c.UseGas(ember.Gas(50 * exponent.ByteLen())) {
		return
	}
	exponent.Exp(base, exponent)
}

// Evaluations show a 96% hit rate of this configuration.
var sha3Cache = newKeccakCache(1<<16, 1<<18)

func opSha3(c *context) {
	offset, size := c.stack.pop(), c.stack.peek()

	if err := checkSizeOffsetUint64Overflow(offset, size); err != nil {
		c.SignalError(err)
		return
	}

	data, err := c.memory.GetSliceWithCapacityAndGas(offset.Uint64(), size.Uint64(), c)
	if err != nil {
		return
	}

	// charge dynamic gas price
	words := ember.SizeInWords(size.Uint64())
	price := ember.Gas(6 * words)
	if !c.UseGas(price) {
		return
	}

	var hash ember.Hash
	if c.withShaCache {
		// Cache hashes since identical values are frequently re-hashed.
		hash = sha3Cache.hash(data)
	} else {
		hash = Keccak256(data)
	}
	size.SetBytes32(hash[:])
}

func opGas(c *context) {
	c.stack.pushEmpty().SetUint64(uint64(c.gas))
}

// opPrevRandao / opDifficulty
func opPrevRandao(c *context) {
	prevRandao := c.params.PrevRandao
	c.stack.pushEmpty().SetBytes32(prevRandao[:])
}

func opTimestamp(c *context) {
	time := c.params.Timestamp
	c.stack.pushEmpty().SetUint64(uint64(time))
}

func opNumber(c *context) {
	number := c.params.BlockNumber
	c.stack.pushEmpty().SetUint64(uint64(number))
}

func opCoinbase(c *context) {
	coinbase := c.params.Coinbase
	c.stack.pushEmpty().SetBytes20(coinbase[:])
}

func opGasLimit(c *context) {
	limit := c.params.GasLimit
	c.stack.pushEmpty().SetUint64(uint64(limit))
}

func opGasPrice(c *context) {
	price := c.params.GasPrice
	c.stack.pushEmpty().SetBytes32(price[:])
}

func opBalance(c *context) {
	slot := c.stack.peek()
	address := ember.Address(slot.Bytes20())
	err := gasEip2929AccountCheck(c, address)
	if err != nil {
		return
	}
	balance := c.context.GetBalance(address)
	slot.SetBytes32(balance[:])
}

func opSelfbalance(c *context) {
	balance := c.context.GetBalance(c.params.Recipient)
	c.stack.pushEmpty().SetBytes32(balance[:])
}

func opBaseFee(c *context) {
	if c.isLondon() {
		fee := c.params.BaseFee
		c.stack.pushEmpty().SetBytes32(fee[:])
	} else {
		c.status = INVALID_INSTRUCTION
		return
	}
}

func opBlobHash(c *context) {
	if !c.isCancun() {
		c.status = INVALID_INSTRUCTION
		return
	}

	index := c.stack.pop()
	blobHashesLength := uint64(len(c.params.BlobHashes))
	if index.IsUint64() && index.Uint64() < blobHashesLength {
		c.stack.pushEmpty().SetBytes32(c.params.BlobHashes[index.Uint64()][:])
	} else {
		c.stack.push(uint256.NewInt(0))
	}
}

func opBlobBaseFee(c *context) {
	if c.isCancun() {
		fee := c.params.BlobBaseFee
		c.stack.pushEmpty().SetBytes32(fee[:])
	} else {
		c.status = INVALID_INSTRUCTION
		return
	}
}

func opSelfdestruct(c *context) {
	beneficiary := ember.Address(c.stack.peek().Bytes20())

	hasValue := c.context.GetBalance(c.params.Recipient) != (ember.Value{})
	beneficiaryExists := c.context.AccountExists(beneficiary)
	//lint:ignore SA1019 deprecated, used to detect repeat self-destructs within this transaction
	firstDestruct := !c.context.HasSelfDestructed(c.params.Recipient)

	var gas, refund ember.Gas
	if c.isBerlin() {
		cold := c.context.AccessAccount(beneficiary) == ember.ColdAccess
		gas, refund = gasSelfdestructEIP2929(cold, beneficiaryExists, hasValue, firstDestruct, c.isLondon())
	} else {
		gas, refund = gasSelfdestruct(beneficiaryExists, hasValue, firstDestruct)
	}
	// even death is not for free
	if !c.UseGas(gas) {
		return
	}
	c.refund += refund

	c.stack.pop()
	c.context.SelfDestruct(c.params.Recipient, beneficiary)
	c.status = SUICIDED
}

func opChainId(c *context) {
	id := c.params.ChainID
	c.stack.pushEmpty().SetBytes32(id[:])
}

func opBlockhash(c *context) {
	num := c.stack.peek()
	num64, overflow := num.Uint64WithOverflow()

	if overflow {
		num.Clear()
		return
	}
	var upper, lower uint64
	upper = uint64(c.params.BlockNumber)
	if upper < 257 {
		lower = 0
	} else {
		lower = upper - 256
	}
	if num64 >= lower && num64 < upper {
		hash := c.context.GetBlockHash(int64(num64))
		num.SetBytes(hash[:])
	} else {
		num.Clear()
	}
}

func opAddress(c *context) {
	c.stack.pushEmpty().SetBytes20(c.params.Recipient[:])
}

func opOrigin(c *context) {
	origin := c.params.Origin
	c.stack.pushEmpty().SetBytes20(origin[:])
}

func opCodeSize(c *context) {
	size := len(c.params.Code)
	c.stack.pushEmpty().SetUint64(uint64(size))
}

func opCodeCopy(c *context) {
	var (
		memOffset  = c.stack.pop()
		codeOffset = c.stack.pop()
		length     = c.stack.pop()
	)

	if checkSizeOffsetUint64Overflow(memOffset, length) != nil {
		c.SignalError(errGasUintOverflow)
		return
	}

	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = 0xffffffffffffffff
	}

	// Charge for length of copied code
	words := ember.SizeInWords(length.Uint64())
	if !c.UseGas(ember.Gas(3 * words)) {
		return
	}

	if c.memory.EnsureCapacity(memOffset.Uint64(), length.Uint64(), c) != nil {
		return
	}
	codeCopy := getData(c.params.Code, uint64CodeOffset, length.Uint64())
	if err := c.memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy); err != nil {
		c.SignalError(err)
	}
}

func opExtcodesize(c *context) {
	top := c.stack.peek()
	addr := ember.Address(top.Bytes20())
	err := gasEip2929AccountCheck(c, addr)
	if err != nil {
		return
	}
	top.SetUint64(uint64(c.context.GetCodeSize(addr)))
}

func opExtcodehash(c *context) {
	slot := c.stack.peek()
	address := ember.Address(slot.Bytes20())
	err := gasEip2929AccountCheck(c, address)
	if err != nil {
		return
	}
	if !c.context.AccountExists(address) {
		slot.Clear()
	} else {
		hash := c.context.GetCodeHash(address)
		slot.SetBytes32(hash[:])
	}
}

func checkInitCodeSize(c *context, size *uint256.Int) bool {
	const (
		MaxCodeSize     = 24576           // Maximum bytecode to permit for a contract
		MaxInitCodeSize = 2 * MaxCodeSize // Maximum initcode to permit in a creation transaction and create instructions
		InitCodeWordGas = 2               // Once per word of the init code when creating a contract.
	)

	if !c.isShanghai() {
		return true
	}
	if !size.IsUint64() || size.Uint64() > MaxInitCodeSize {
		c.UseGas(c.gas)
		c.status = MAX_INIT_CODE_SIZE_EXCEEDED
		return false
	}
	if !c.UseGas(ember.Gas(InitCodeWordGas * ember.SizeInWords(size.Uint64()))) {
		c.status = OUT_OF_GAS
		return false
	}

	return true
}

func opCreate(c *context) {
	var (
		value  = c.stack.pop()
		offset = c.stack.pop()
		size   = c.stack.pop()
	)
	if err := checkSizeOffsetUint64Overflow(offset, size); err != nil {
		c.SignalError(err)
		return
	}

	if c.memory.EnsureCapacity(offset.Uint64(), size.Uint64(), c) != nil {
		return
	}

	if !checkInitCodeSize(c, size) {
		return
	}

	if !value.IsZero() {
		balance := c.context.GetBalance(c.params.Recipient)
		balanceU256 := new(uint256.Int).SetBytes(balance[:])

		if value.Gt(balanceU256) {
			c.stack.pushEmpty().Clear()
			c.return_data = nil
			return
		}
	}

	input := c.memory.GetSlice(offset.Uint64(), size.Uint64())

	gas := c.gas
	if true /*c.evm.chainRules.IsEIP150*/ {
		gas -= gas / 64
	}

	c.UseGas(gas)

	c.status = AWAITING_CALL
	c.pendingCreate = true
	c.pendingKind = ember.Create
	c.pendingCall = ember.CallParameters{
		Sender: c.params.Recipient,
		Value:  ember.Value(value.Bytes32()),
		Input:  input,
		Gas:    gas,
	}
}

// resumeCreate applies the outcome of a suspended CREATE/CREATE2 to the
// stack and gas accounting of c, picking up where opCreate/opCreate2 left
// off.
func resumeCreate(c *context, res ember.CallResult, err error) {
	c.gas += res.GasLeft
	c.refund += res.GasRefund

	success := c.stack.pushEmpty()
	if !res.Success || err != nil {
		success.Clear()
	} else {
		success.SetBytes20(res.CreatedAddress[:])
	}

	if !res.Success && err == nil {
		c.return_data = res.Output
	} else {
		c.return_data = nil
	}
	c.status = RUNNING
}

func opCreate2(c *context) {
	var (
		value  = c.stack.pop()
		offset = c.stack.pop()
		size   = c.stack.pop()
		salt   = c.stack.pop()
	)
	if err := checkSizeOffsetUint64Overflow(offset, size); err != nil {
		c.SignalError(err)
		return
	}

	if c.memory.EnsureCapacity(offset.Uint64(), size.Uint64(), c) != nil {
		return
	}

	if !checkInitCodeSize(c, size) {
		return
	}

	// Charge for the code size
	words := ember.SizeInWords(size.Uint64())
	if !c.UseGas(ember.Gas(6 * words)) {
		return
	}

	if !value.IsZero() {
		balance := c.context.GetBalance(c.params.Recipient)
		balanceU256 := new(uint256.Int).SetBytes(balance[:])

		if value.Gt(balanceU256) {
			c.stack.pushEmpty().Clear()
			c.return_data = nil
			return
		}
	}

	input := c.memory.GetSlice(offset.Uint64(), size.Uint64())

	// Apply EIP150
	gas := c.gas
	gas -= gas / 64
	if !c.UseGas(gas) {
		return
	}

	c.status = AWAITING_CALL
	c.pendingCreate = true
	c.pendingKind = ember.Create2
	c.pendingCall = ember.CallParameters{
		Sender: c.params.Recipient,
		Value:  ember.Value(value.Bytes32()),
		Input:  input,
		Gas:    gas,
		Salt:   ember.Hash(salt.Bytes32()),
	}
}

func getData(data []byte, start uint64, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length {
		end = length
	}
	// Apply some right-padding to the result.
	res := make([]byte, int(size))
	copy(res, data[start:end])
	return res
}

func opExtCodeCopy(c *context) {
	var (
		stack      = c.stack
		a          = stack.pop()
		memOffset  = stack.pop()
		codeOffset = stack.pop()
		length     = stack.pop()
	)
	if checkSizeOffsetUint64Overflow(memOffset, length) != nil {
		c.SignalError(errGasUintOverflow)
		return
	}

	// Charge for length of copied code
	words := ember.SizeInWords(length.Uint64())
	if !c.UseGas(ember.Gas(3 * words)) {
		return
	}

	addr := ember.Address(a.Bytes20())
	err := gasEip2929AccountCheck(c, addr)
	if err != nil {
		return
	}
	var uint64CodeOffset uint64
	if codeOffset.IsUint64() {
		uint64CodeOffset = codeOffset.Uint64()
	} else {
		uint64CodeOffset = math.MaxUint64
	}

	if c.memory.EnsureCapacity(memOffset.Uint64(), length.Uint64(), c) != nil {
		return
	}
	codeCopy := getData(c.context.GetCode(addr), uint64CodeOffset, length.Uint64())
	if err = c.memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy); err != nil {
		c.SignalError(err)
	}
}

func checkSizeOffsetUint64Overflow(offset, size *uint256.Int) error {
	if size.IsZero() {
		return nil
	}
	if !offset.IsUint64() || !size.IsUint64() || offset.Uint64()+size.Uint64() < offset.Uint64() {
		return errGasUintOverflow
	}
	return nil
}

func neededMemorySize(c *context, offset, size *uint256.Int) (uint64, error) {
	if err := checkSizeOffsetUint64Overflow(offset, size); err != nil {
		c.SignalError(err)
		return 0, err
	}
	if size.IsZero() {
		return 0, nil
	}
	return offset.Uint64() + size.Uint64(), nil
}

// gasEip2929AccountCheck charges the cold-access surcharge for addr the first
// time it is touched in a transaction, a no-op before Berlin where the access
// cost is already folded into the opcode's static price.
func gasEip2929AccountCheck(c *context, addr ember.Address) error {
	if !c.isBerlin() {
		return nil
	}
	cold := c.context.AccessAccount(addr) == ember.ColdAccess
	if !c.UseGas(accountAccessSurcharge(cold, c.revision)) {
		return errOutOfGas
	}
	return nil
}

// addressInAccessList inspects (without popping) the call target sitting one
// slot below the gas argument on top of the stack, returning whether it is
// already warm and, if not, the surcharge to be folded into the call's gas
// accounting.
func addressInAccessList(c *context) (warm bool, coldCost ember.Gas, err error) {
	if !c.isBerlin() {
		return true, 0, nil
	}
	addr := ember.Address(c.stack.peekN(1).Bytes20())
	if c.context.AccessAccount(addr) == ember.WarmAccess {
		return true, 0, nil
	}
	return false, accountAccessSurcharge(true, c.revision), nil
}

func genericCall(c *context, kind ember.CallKind) {
	warmAccess, coldCost, err := addressInAccessList(c)
	if err != nil {
		return
	}
	stack := c.stack
	value := uint256.NewInt(0)

	// Pop call parameters.
	provided_gas, addr := stack.pop(), stack.pop()
	if kind == ember.Call || kind == ember.CallCode {
		value = stack.pop()
	}
	inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop()

	// We need to check the existence of the target account before removing
	// the gas price for the other cost factors to make sure that the read
	// in the state DB is always happening. This is the current EVM behavior,
	// and not doing it would be identified by the replay tool as an error.
	toAddr := ember.Address(addr.Bytes20())

	// Compute and charge gas price for call
	arg_memory_size, err := neededMemorySize(c, inOffset, inSize)
	if err != nil {
		return
	}
	ret_memory_size, err := neededMemorySize(c, retOffset, retSize)
	if err != nil {
		return
	}

	needed_memory_size := arg_memory_size
	if ret_memory_size > arg_memory_size {
		needed_memory_size = ret_memory_size
	}

	baseGas := c.memory.ExpansionCosts(needed_memory_size)
	checkGas := func(cost ember.Gas) bool {
		return 0 <= cost && cost <= c.gas
	}
	if !checkGas(baseGas) {
		c.status = OUT_OF_GAS
		return
	}

	// for static and delegate calls, the following value checks will always be zero.
	// Charge for transferring value to a new address
	if !value.IsZero() {
		baseGas += CallValueTransferGas
	}
	if !checkGas(baseGas) {
		c.status = OUT_OF_GAS
		return
	}

	// EIP158 states that non-zero value calls that create a new account should
	// be charged an additional gas fee.
	if kind == ember.Call && !value.IsZero() && !c.context.AccountExists(toAddr) {
		baseGas += CallNewAccountGas
	}
	if !checkGas(baseGas) {
		c.status = OUT_OF_GAS
		return
	}

	cost := callGas(c.gas, baseGas, provided_gas)
	if !warmAccess {
		// In case of a cold access, we temporarily add the cold charge back, and also
		// add it to the returned gas. By adding it to the return, it will be charged
		// outside of this function, as part of the dynamic gas, and that will make it
		// also become correctly reported to tracers.
		c.gas += coldCost
		baseGas += coldCost
	}
	if !c.UseGas(baseGas + cost) {
		return
	}

	// first use static and dynamic gas cost and then resize the memory
	// when out of gas is happening, then mem should not be resized
	c.memory.EnsureCapacityWithoutGas(needed_memory_size)
	if !value.IsZero() {
		cost += CallStipend
	}

	// Check that the caller has enough balance to transfer the requested value.
	if (kind == ember.Call || kind == ember.CallCode) && !value.IsZero() {
		balance := c.context.GetBalance(c.params.Recipient)
		balanceU256 := new(uint256.Int).SetBytes32(balance[:])
		if balanceU256.Lt(value) {
			c.stack.pushEmpty().Clear()
			c.return_data = nil
			c.gas += cost // the gas send to the nested contract is returned
			return
		}
	}

	// If we are in static mode, recursive calls are to be treated like
	// static calls. This is a consequence of the unification of the
	// interpreter interfaces of EVMC and Geth.
	// This problem was encountered in block 58413779, transaction 7.
	if c.params.Static && kind == ember.Call {
		kind = ember.StaticCall
	}

	// Get arguments from the memory.
	args := c.memory.GetSlice(inOffset.Uint64(), inSize.Uint64())

	// Prepare arguments, depending on call kind
	callParams := ember.CallParameters{
		Input: args,
		Gas:   cost,
		Value: ember.Value(value.Bytes32()),
	}

	switch kind {
	case ember.Call, ember.StaticCall:
		callParams.Sender = c.params.Recipient
		callParams.Recipient = toAddr

	case ember.CallCode:
		callParams.Sender = c.params.Recipient
		callParams.Recipient = c.params.Recipient
		callParams.CodeAddress = toAddr

	case ember.DelegateCall:
		callParams.Sender = c.params.Sender
		callParams.Recipient = c.params.Recipient
		callParams.CodeAddress = toAddr
		callParams.Value = c.params.Value
	}

	// Suspend rather than performing the call inline: a driver sitting
	// above this package carries out the call and resumes us with its
	// outcome through resumeGenericCall, so nested calls never grow the
	// Go call stack.
	c.status = AWAITING_CALL
	c.pendingCreate = false
	c.pendingKind = kind
	c.pendingCall = callParams
	c.pendingRetOffset = retOffset.Uint64()
	c.pendingRetSize = retSize.Uint64()
}

// resumeGenericCall applies the outcome of a suspended CALL/CALLCODE/
// DELEGATECALL/STATICCALL to the stack, memory and gas accounting of c,
// picking up exactly where genericCall left off.
func resumeGenericCall(c *context, ret ember.CallResult, err error) {
	if err == nil {
		if memSetErr := c.memory.Set(c.pendingRetOffset, c.pendingRetSize, ret.Output); memSetErr != nil {
			c.SignalError(memSetErr)
			return
		}
	}

	success := c.stack.pushEmpty()
	if err != nil || !ret.Success {
		success.Clear()
	} else {
		success.SetOne()
	}
	c.gas += ret.GasLeft
	c.refund += ret.GasRefund
	c.return_data = ret.Output
	c.status = RUNNING
}

func opCall(c *context) {
	value := c.stack.data[c.stack.stackPointer-3]
	// In a static call, no value must be transferred.
	if c.params.Static && !value.IsZero() {
		c.SignalError(errWriteProtection)
		return
	}
	genericCall(c, ember.Call)
}

func opCallCode(c *context) {
	genericCall(c, ember.CallCode)
}

func opStaticCall(c *context) {
	genericCall(c, ember.StaticCall)
}

func opDelegateCall(c *context) {
	genericCall(c, ember.DelegateCall)
}

func opReturnDataSize(c *context) {
	c.stack.pushEmpty().SetUint64(uint64(len(c.return_data)))
}

func opReturnDataCopy(c *context) {
	var (
		memOffset  = c.stack.pop()
		dataOffset = c.stack.pop()
		length     = c.stack.pop()
	)

	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		c.SignalError(errReturnDataOutOfBounds)
		return
	}
	// we can reuse dataOffset now (aliasing it for clarity)
	var end = dataOffset
	end.Add(dataOffset, length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(c.return_data)) < end64 {
		c.SignalError(errReturnDataOutOfBounds)
		return
	}

	if err := checkSizeOffsetUint64Overflow(memOffset, length); err != nil {
		c.SignalError(err)
		return
	}

	words := ember.SizeInWords(length.Uint64())
	if !c.UseGas(ember.Gas(3 * words)) {
		return
	}

	if err := c.memory.SetWithCapacityAndGasCheck(memOffset.Uint64(), length.Uint64(), c.return_data[offset64:end64], c); err != nil {
		c.SignalError(err)
	}
}

func opLog(c *context, size int) {
	topics := make([]ember.Hash, size)
	stack := c.stack
	mStart, mSize := stack.pop(), stack.pop()

	if err := checkSizeOffsetUint64Overflow(mStart, mSize); err != nil {
		c.SignalError(err)
		return
	}

	for i := 0; i < size; i++ {
		addr := stack.pop()
		topics[i] = addr.Bytes32()
	}

	// Expand memory if needed
	start := mStart.Uint64()
	log_size := mSize.Uint64()

	// charge for log size
	if !c.UseGas(ember.Gas(8 * log_size)) {
		return
	}

	d, err := c.memory.GetSliceWithCapacityAndGas(start, log_size, c)
	if err != nil {
		return
	}

	// make a copy of the data to disconnect from memory
	log_data := bytes.Clone(d)
	c.context.EmitLog(ember.Log{
		Address: c.params.Recipient,
		Topics:  topics,
		Data:    log_data,
	})
}
