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
	"errors"
	"testing"

	"github.com/emberchain/ember/go/ember"
	"github.com/holiman/uint256"
)

func TestMemory_NewMemoryIsEmpty(t *testing.T) {
	m := NewMemory()
	if m.Len() != 0 {
		t.Errorf("memory should be empty, instead has length: %d", m.Len())
	}
}

func TestMemory_ExpansionCosts_GrowsInWords(t *testing.T) {
	m := NewMemory()
	tests := map[string]struct {
		size uint64
		cost int64
	}{
		"empty":        {0, 0},
		"one_word":     {32, 3},
		"partial_word": {1, 3},
		"two_words":    {64, 6},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := m.ExpansionCosts(test.size); int64(got) != test.cost {
				t.Errorf("ExpansionCosts(%d) = %d, want %d", test.size, got, test.cost)
			}
		})
	}
}

func TestMemory_EnsureCapacity_ChargesIncrementalCostOnly(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 1000}

	if err := m.EnsureCapacity(0, 32, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Len() != 32 {
		t.Fatalf("expected memory of length 32, got %d", m.Len())
	}
	spentFirst := ember.Gas(1000) - c.gas

	if err := m.EnsureCapacity(0, 32, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spentSecond := (ember.Gas(1000) - spentFirst) - c.gas; spentSecond != 0 {
		t.Errorf("re-ensuring existing capacity should be free, spent %d more gas", spentSecond)
	}
}

func TestMemory_EnsureCapacity_OutOfGas(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 1}
	err := m.EnsureCapacity(0, 32, c)
	if !errors.Is(err, errOutOfGas) {
		t.Errorf("expected errOutOfGas, got %v", err)
	}
	if c.status != OUT_OF_GAS {
		t.Errorf("expected status OUT_OF_GAS, got %v", c.status)
	}
}

func TestMemory_EnsureCapacity_OffsetOverflow(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 1 << 40}
	err := m.EnsureCapacity(^uint64(0), 32, c)
	if !errors.Is(err, errGasUintOverflow) {
		t.Errorf("expected errGasUintOverflow, got %v", err)
	}
}

func TestMemory_EnsureCapacity_ZeroSizeIsNoop(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 100}
	if err := m.EnsureCapacity(1000, 0, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("zero-size request should not allocate, got length %d", m.Len())
	}
	if c.gas != 100 {
		t.Errorf("zero-size request should not charge gas, gas left %d", c.gas)
	}
}

func TestMemory_SetAndGetSlice_RoundTrip(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 1 << 20}
	data := []byte{1, 2, 3, 4}
	if err := m.Set(32, uint64(len(data)), data, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := m.GetSlice(32, uint64(len(data)))
	if !bytes.Equal(got, data) {
		t.Errorf("unexpected slice, wanted %v, got %v", data, got)
	}
}

func TestMemory_SetWordAndCopyWord_RoundTrip(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 1 << 20}
	value := uint256.NewInt(0xdeadbeef)
	if err := m.SetWord(0, value, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out uint256.Int
	if err := m.CopyWord(0, &out, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Cmp(value) != 0 {
		t.Errorf("unexpected word, wanted %v, got %v", value, &out)
	}
}

func TestMemory_SetByte(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 1 << 20}
	if err := m.SetByte(10, 0x42, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.GetSlice(10, 1)[0]; got != 0x42 {
		t.Errorf("unexpected byte, wanted 0x42, got 0x%x", got)
	}
}

func TestMemory_GetSlice_UnallocatedRangeReturnsNil(t *testing.T) {
	m := NewMemory()
	if got := m.GetSlice(0, 32); got != nil {
		t.Errorf("expected nil for unallocated range, got %v", got)
	}
}

func TestMemory_GetSlice_ZeroSizeReturnsNil(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 1 << 20}
	_ = m.EnsureCapacity(0, 32, c)
	if got := m.GetSlice(0, 0); got != nil {
		t.Errorf("expected nil for zero size, got %v", got)
	}
}

func TestMemory_CopyData_PadsPastEnd(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 1 << 20}
	_ = m.Set(0, 2, []byte{0xaa, 0xbb}, c)

	trg := make([]byte, 4)
	m.CopyData(0, trg)
	want := []byte{0xaa, 0xbb, 0, 0}
	if !bytes.Equal(trg, want) {
		t.Errorf("unexpected copy, wanted %v, got %v", want, trg)
	}
}

func TestMemory_GetSliceWithCapacityAndGas_ExpandsAndReturnsZeroedSlice(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 1 << 20}
	got, err := m.GetSliceWithCapacityAndGas(0, 32, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 32 {
		t.Errorf("expected slice of length 32, got %d", len(got))
	}
	for _, b := range got {
		if b != 0 {
			t.Fatalf("expected freshly expanded memory to be zeroed")
		}
	}
}
