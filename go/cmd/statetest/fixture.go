// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/emberchain/ember/go/ember"
)

// fixture is a single state-test case: a pre-state allocation, one
// transaction, the block environment it runs in, and the expected
// post-state allocation. This is a deliberately simplified projection of
// the ethereum/tests JSON schema: it compares accounts and storage slots
// directly rather than Merkle-Patricia state roots, since trie hashing is
// explicitly out of scope (spec.md §1 lists it as an external
// collaborator). See DESIGN.md for the reasoning.
type fixture struct {
	Pre         map[string]fixtureAccount `json:"pre"`
	Transaction fixtureTransaction        `json:"transaction"`
	Block       fixtureBlock              `json:"block"`
	Post        map[string]fixtureAccount `json:"post"`
}

type fixtureAccount struct {
	Balance string            `json:"balance"`
	Nonce   uint64            `json:"nonce"`
	Code    string            `json:"code"`
	Storage map[string]string `json:"storage"`
}

type fixtureTransaction struct {
	Sender   string `json:"sender"`
	To       string `json:"to"` // empty for contract creation
	Nonce    uint64 `json:"nonce"`
	Value    string `json:"value"`
	GasLimit int64  `json:"gasLimit"`
	GasPrice string `json:"gasPrice"`
	Input    string `json:"input"`
}

type fixtureBlock struct {
	ChainID    string `json:"chainId"`
	Number     int64  `json:"number"`
	Timestamp  int64  `json:"timestamp"`
	Coinbase   string `json:"coinbase"`
	GasLimit   int64  `json:"gasLimit"`
	BaseFee    string `json:"baseFee"`
	PrevRandao string `json:"prevRandao"`
	Revision   string `json:"revision"`
}

func loadFixture(path string) (*fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var f fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, nil
}

func parseAddress(s string) (ember.Address, error) {
	var addr ember.Address
	b, err := parseHex(s)
	if err != nil {
		return addr, err
	}
	if len(b) != len(addr) {
		return addr, fmt.Errorf("address %q is not %d bytes", s, len(addr))
	}
	copy(addr[:], b)
	return addr, nil
}

func parseHash(s string) (ember.Hash, error) {
	var h ember.Hash
	b, err := parseHex(s)
	if err != nil {
		return h, err
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("hash %q is not %d bytes", s, len(h))
	}
	copy(h[:], b)
	return h, nil
}

func parseWord(s string) (ember.Word, error) {
	return parseFixed32(s)
}

func parseValue(s string) (ember.Value, error) {
	return parseFixed32(s)
}

func parseFixed32(s string) ([32]byte, error) {
	var out [32]byte
	if s == "" {
		return out, nil
	}
	b, err := parseHex(s)
	if err != nil {
		return out, err
	}
	if len(b) > 32 {
		return out, fmt.Errorf("value %q overflows 32 bytes", s)
	}
	copy(out[32-len(b):], b)
	return out, nil
}

func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

func parseRevision(name string) (ember.Revision, error) {
	for _, r := range ember.GetAllKnownRevisions() {
		if strings.EqualFold(r.String(), name) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown revision %q", name)
}
