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
	"math"

	"github.com/emberchain/ember/go/ember"
	"github.com/holiman/uint256"
)

// Memory models the byte-addressable, word-expanding scratch space available
// to a running contract. It grows lazily, in 32-byte words, and every
// expansion is charged for using the standard quadratic memory cost formula.
type Memory struct {
	store             []byte
	currentMemoryCost ember.Gas
}

func NewMemory() *Memory {
	return &Memory{}
}

func toValidMemorySize(size uint64) uint64 {
	fullWordsSize := ember.SizeInWords(size) * 32
	if size != 0 && fullWordsSize < size {
		return math.MaxUint64
	}
	return fullWordsSize
}

const (
	// Memory expansion cost is computed using unsigned arithmetic; this bound
	// comes from geth's core/vm/gas_table.go memoryGasCost and keeps the
	// computation from overflowing int64.
	maxMemoryExpansionSize = 0x1FFFFFFFE0
)

// ExpansionCosts returns the incremental gas cost of growing the memory to
// cover size bytes, or zero if it is already large enough.
func (m *Memory) ExpansionCosts(size uint64) ember.Gas {
	const (
		maxInWords uint64 = (uint64(maxMemoryExpansionSize) + 31) / 32
		_                 = int64(maxInWords*maxInWords/512 + 3*maxInWords)
	)

	if m.Len() >= size {
		return 0
	}
	size = toValidMemorySize(size)

	if size > maxMemoryExpansionSize {
		return ember.Gas(math.MaxInt64)
	}

	words := ember.SizeInWords(size)
	newCost := ember.Gas((words*words)/512 + (3 * words))
	return newCost - m.currentMemoryCost
}

// EnsureCapacity grows the memory to cover offset+size, charging gas for the
// expansion against c. It is a no-op when size is zero or the memory is
// already large enough. It signals an error on c if gas runs out or offset+size
// overflows.
func (m *Memory) EnsureCapacity(offset, size uint64, c *context) error {
	if size == 0 {
		return nil
	}
	needed := offset + size
	if needed < offset {
		c.signalError(errGasUintOverflow)
		return errGasUintOverflow
	}
	if m.Len() < needed {
		fee := m.ExpansionCosts(needed)
		if !c.useGas(fee) {
			c.status = OUT_OF_GAS
			return errOutOfGas
		}
		m.EnsureCapacityWithoutGas(needed)
	}
	return nil
}

// EnsureCapacityWithoutGas grows the memory to the given size without
// charging gas. Used once gas for an operation has already been accounted for
// through other means (e.g. CALL's combined base-gas computation).
func (m *Memory) EnsureCapacityWithoutGas(needed uint64) {
	needed = toValidMemorySize(needed)
	size := m.Len()
	if size < needed {
		m.currentMemoryCost += m.ExpansionCosts(needed)
		m.store = append(m.store, make([]byte, needed-size)...)
	}
}

// Len returns the current size of the memory in bytes.
func (m *Memory) Len() uint64 {
	return uint64(len(m.store))
}

// SetByte writes a single byte at offset, expanding memory as needed.
func (m *Memory) SetByte(offset uint64, value byte, c *context) error {
	return m.Set(offset, 1, []byte{value}, c)
}

// SetWord writes a 32-byte word at offset, expanding memory as needed.
func (m *Memory) SetWord(offset uint64, value *uint256.Int, c *context) error {
	data := value.Bytes32()
	return m.Set(offset, 32, data[:], c)
}

// Set writes value at offset, expanding memory (and charging for it) as
// needed.
func (m *Memory) Set(offset, size uint64, value []byte, c *context) error {
	if err := m.EnsureCapacity(offset, size, c); err != nil {
		return err
	}
	if size > 0 {
		if offset+size < offset {
			return errGasUintOverflow
		}
		if offset+size > m.Len() {
			return fmt.Errorf("memory too small, size %d, attempted to write %d bytes at %d", m.Len(), size, offset)
		}
		copy(m.store[offset:offset+size], value)
	}
	return nil
}

// SetWithCapacityAndGasCheck is an alias of Set kept for readability at call
// sites that are specifically growing memory to accommodate a copy.
func (m *Memory) SetWithCapacityAndGasCheck(offset, size uint64, value []byte, c *context) error {
	return m.Set(offset, size, value, c)
}

// CopyWord reads a 32-byte word at offset into trg, expanding memory as
// needed.
func (m *Memory) CopyWord(offset uint64, trg *uint256.Int, c *context) error {
	if err := m.EnsureCapacity(offset, 32, c); err != nil {
		return err
	}
	if m.Len() < offset+32 {
		return fmt.Errorf("memory too small, size %d, attempted to read 32 byte at position %d", m.Len(), offset)
	}
	trg.SetBytes32(m.store[offset : offset+32])
	return nil
}

// CopyData copies len(trg) bytes starting at offset into trg, zero-padding
// past the end of memory.
func (m *Memory) CopyData(offset uint64, trg []byte) {
	if m.Len() < offset {
		copy(trg, make([]byte, len(trg)))
		return
	}
	covered := copy(trg, m.store[offset:])
	if covered < len(trg) {
		copy(trg[covered:], make([]byte, len(trg)-covered))
	}
}

// GetSlice returns a view into memory covering offset:offset+size, or nil if
// that range hasn't been allocated (callers must expand capacity first).
func (m *Memory) GetSlice(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	if m.Len() >= offset+size {
		return m.store[offset : offset+size]
	}
	return nil
}

// GetSliceWithCapacityAndGas expands memory to cover offset:offset+size,
// charging gas against c, and returns the resulting slice.
func (m *Memory) GetSliceWithCapacityAndGas(offset, size uint64, c *context) ([]byte, error) {
	if err := m.EnsureCapacity(offset, size, c); err != nil {
		return nil, err
	}
	return m.GetSlice(offset, size), nil
}
