// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package engine - the per-chain light client state machine
//
// stateless against the network: blocks are pushed in by the feeder,
// signed peg transactions come back out; all chain state lives behind
// the storage facade and every submission is one atomic transaction
package engine

import (
	"math/big"

	"github.com/bitmark-inc/logger"

	"github.com/crossmark-inc/pegcored/chain"
	"github.com/crossmark-inc/pegcored/chainstore"
	"github.com/crossmark-inc/pegcored/debugsigner"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/peg"
	"github.com/crossmark-inc/pegcored/storage"
	"github.com/crossmark-inc/pegcored/utxostore"
)

// Options - construction time levers
//
// NonValidating disables every header and commitment check; it
// removes the core safety property and is logged loudly
type Options struct {
	NonValidating    bool
	Materialiser     peg.Materialiser
	FirstDebugSigner string
}

// Engine - one light client core instance
//
// the host serialises calls; the engine holds no chain state in
// memory across them
type Engine struct {
	log           *logger.L
	access        storage.Access
	family        chain.Family
	store         *chainstore.Store
	utxos         *utxostore.Store
	roster        *debugsigner.Roster
	materialiser  peg.Materialiser
	nonValidating bool
	firstSigner   string
}

// New - build an engine over a storage facade and a chain family
func New(access storage.Access, family chain.Family, options *Options) *Engine {
	if nil == options {
		options = &Options{}
	}

	log := logger.New("engine:" + family.ID().String())
	if options.NonValidating {
		log.Critical("NON-VALIDATING MODE: all block validation is disabled")
	}

	return &Engine{
		log:           log,
		access:        access,
		family:        family,
		store:         chainstore.New(access, family.ID()),
		utxos:         utxostore.New(access, family.ID()),
		roster:        debugsigner.NewRoster(access),
		materialiser:  options.Materialiser,
		nonValidating: options.NonValidating,
		firstSigner:   options.FirstDebugSigner,
	}
}

// Store - the underlying chain store, for read-only reporting
func (e *Engine) Store() *chainstore.Store {
	return e.store
}

// Roster - the debug signatory roster handle
func (e *Engine) Roster() *debugsigner.Roster {
	return e.roster
}

// begin/commit/abort bracket used by every mutating entry point
func (e *Engine) inTransaction(work func() error) error {
	if err := e.access.Begin(); nil != err {
		return err
	}
	if err := work(); nil != err {
		e.access.Abort()
		e.store.ResetCache()
		return err
	}
	if err := e.access.Commit(); nil != err {
		e.access.Abort()
		e.store.ResetCache()
		return err
	}
	return nil
}

// Initialise - install the anchor block and freeze the configuration
//
// the anchor's commitment roots are not verified and its body may be
// empty; a second initialisation is refused
func (e *Engine) Initialise(anchorData []byte, config *chainstore.Config) error {
	return e.inTransaction(func() error {
		if e.store.IsInitialised() {
			return fault.AlreadyInitialised
		}
		if err := e.store.PutConfig(config); nil != err {
			return err
		}

		block, err := e.family.ParseBlock(anchorData, true)
		if nil != err {
			return err
		}
		if !e.nonValidating {
			if err := e.family.Validate(block, nil); nil != err {
				return err
			}
		}

		work := block.Work
		if nil == work {
			work = big.NewInt(1)
		}
		record := newRecord(block, work)
		e.store.PutBlock(record)

		hash := block.Hash
		e.store.PutPointer(chainstore.Anchor, hash)
		e.store.PutPointer(chainstore.Latest, hash)
		e.store.PutPointer(chainstore.Canon, hash)
		e.store.PutPointer(chainstore.Tail, hash)

		if "" != e.firstSigner {
			if err := e.roster.InstallFirst(e.firstSigner); nil != err {
				return err
			}
		}

		e.log.Infof("initialised at height %d anchor %s", block.Height, hash)
		return nil
	})
}

// DebugAddSigners - gated roster addition, atomic as a batch
func (e *Engine) DebugAddSigners(addresses []string, signature []byte) error {
	return e.inTransaction(func() error {
		if !e.store.IsInitialised() {
			return fault.NotInitialised
		}
		if 1 == len(addresses) {
			return e.roster.Add(addresses[0], signature)
		}
		return e.roster.AddBatch(addresses, signature)
	})
}

// DebugRemoveSigner - gated roster removal
func (e *Engine) DebugRemoveSigner(address string, signature []byte) error {
	return e.inTransaction(func() error {
		if !e.store.IsInitialised() {
			return fault.NotInitialised
		}
		return e.roster.Remove(address, signature)
	})
}
