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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dsnet/golib/unitconv"
	"github.com/emberchain/ember/go/ember"
	"github.com/emberchain/ember/go/interpreter/engine"
	_ "github.com/emberchain/ember/go/processor/atlas"
	"github.com/emberchain/ember/go/state"
	"github.com/urfave/cli/v2"
)

var RunCmd = cli.Command{
	Action:    doRun,
	Name:      "statetest",
	Usage:     "Run state-test fixtures against the ember EVM core",
	ArgsUsage: "<path>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "keep-going",
			Usage: "do not stop at the first failing fixture",
		},
		&cli.BoolFlag{
			Name:  "single-file",
			Usage: "treat <path> as a single fixture file rather than a directory tree",
		},
	},
}

func doRun(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return fmt.Errorf("missing fixture path")
	}
	keepGoing := ctx.Bool("keep-going")
	singleFile := ctx.Bool("single-file")

	files, err := collectFixtureFiles(path, singleFile)
	if err != nil {
		return err
	}

	start := time.Now()
	passed, failed := 0, 0
	for _, f := range files {
		err := runFixtureFile(f)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", f, err)
			if !keepGoing {
				return fmt.Errorf("%d cases failed", failed)
			}
			continue
		}
		passed++
	}

	elapsed := time.Since(start).Seconds()
	rate := float64(passed+failed) / elapsed
	fmt.Printf("%d passed, %d failed (%s cases/s)\n",
		passed, failed, unitconv.FormatPrefix(rate, unitconv.SI, 0))

	if failed > 0 {
		return fmt.Errorf("%d cases failed", failed)
	}
	return nil
}

func collectFixtureFiles(path string, singleFile bool) ([]string, error) {
	if singleFile {
		return []string{path}, nil
	}
	var files []string
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) == ".json" {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

func runFixtureFile(path string) error {
	f, err := loadFixture(path)
	if err != nil {
		return err
	}

	db, err := seedDatabase(f.Pre)
	if err != nil {
		return fmt.Errorf("seeding pre-state: %w", err)
	}

	block, err := buildBlockParameters(f.Block)
	if err != nil {
		return fmt.Errorf("parsing block: %w", err)
	}
	tx, err := buildTransaction(f.Transaction)
	if err != nil {
		return fmt.Errorf("parsing transaction: %w", err)
	}

	journal := state.New(db)
	processor := ember.GetProcessor("atlas", ember.GetInterpreter("ember"))
	if processor == nil {
		return fmt.Errorf("no processor registered")
	}

	if _, err := processor.Run(block, tx, journal); err != nil {
		return fmt.Errorf("executing transaction: %w", err)
	}

	return comparePostState(journal, f.Post)
}

func seedDatabase(pre map[string]fixtureAccount) (*state.MemoryDatabase, error) {
	db := state.NewMemoryDatabase()
	for addrStr, acc := range pre {
		addr, err := parseAddress(addrStr)
		if err != nil {
			return nil, err
		}
		balance, err := parseValue(acc.Balance)
		if err != nil {
			return nil, err
		}
		code, err := parseHex(acc.Code)
		if err != nil {
			return nil, err
		}
		hash := codeHash(code)
		db.SetAccount(addr, ember.BasicAccount{Nonce: acc.Nonce, Balance: balance, CodeHash: hash})
		db.SetCode(hash, code)
		for keyStr, valStr := range acc.Storage {
			key, err := parseHash(keyStr)
			if err != nil {
				return nil, err
			}
			val, err := parseWord(valStr)
			if err != nil {
				return nil, err
			}
			db.SetStorage(addr, ember.Key(key), val)
		}
	}
	return db, nil
}

func buildBlockParameters(b fixtureBlock) (ember.BlockParameters, error) {
	chainID, err := parseWord(b.ChainID)
	if err != nil {
		return ember.BlockParameters{}, err
	}
	coinbase, err := parseAddress(b.Coinbase)
	if err != nil {
		return ember.BlockParameters{}, err
	}
	baseFee, err := parseValue(b.BaseFee)
	if err != nil {
		return ember.BlockParameters{}, err
	}
	prevRandao, err := parseHash(b.PrevRandao)
	if err != nil {
		return ember.BlockParameters{}, err
	}
	revision, err := parseRevision(b.Revision)
	if err != nil {
		return ember.BlockParameters{}, err
	}
	return ember.BlockParameters{
		ChainID:     chainID,
		BlockNumber: b.Number,
		Timestamp:   b.Timestamp,
		Coinbase:    coinbase,
		GasLimit:    ember.Gas(b.GasLimit),
		PrevRandao:  prevRandao,
		BaseFee:     baseFee,
		Revision:    revision,
	}, nil
}

func buildTransaction(t fixtureTransaction) (ember.Transaction, error) {
	sender, err := parseAddress(t.Sender)
	if err != nil {
		return ember.Transaction{}, err
	}
	value, err := parseValue(t.Value)
	if err != nil {
		return ember.Transaction{}, err
	}
	gasPrice, err := parseValue(t.GasPrice)
	if err != nil {
		return ember.Transaction{}, err
	}
	input, err := parseHex(t.Input)
	if err != nil {
		return ember.Transaction{}, err
	}

	tx := ember.Transaction{
		Sender:   sender,
		Nonce:    t.Nonce,
		Input:    input,
		Value:    value,
		GasLimit: ember.Gas(t.GasLimit),
		GasPrice: gasPrice,
	}
	if t.To != "" {
		to, err := parseAddress(t.To)
		if err != nil {
			return ember.Transaction{}, err
		}
		tx.Recipient = &to
	}
	return tx, nil
}

func codeHash(code []byte) ember.Hash {
	if len(code) == 0 {
		return ember.Hash{}
	}
	return engine.Keccak256(code)
}
