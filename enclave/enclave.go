// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package enclave - read-only state snapshot
//
// assembles pointers, configuration and the debug signatory roster
// for external inspection; never opens a write transaction and is
// safe to call at any time
package enclave

import (
	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/chainstore"
	"github.com/crossmark-inc/pegcored/debugsigner"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/storage"
	"github.com/crossmark-inc/pegcored/version"
)

// PointerState - one named pointer with its height
type PointerState struct {
	Hash   blockdigest.Digest `json:"hash"`
	Height uint64             `json:"height"`
}

// ChainState - snapshot of one chain's small chain
type ChainState struct {
	ChainID      chainid.ChainID    `json:"chain_id"`
	Anchor       PointerState       `json:"anchor"`
	Latest       PointerState       `json:"latest"`
	Canon        PointerState       `json:"canon"`
	Tail         PointerState       `json:"tail"`
	LinkerHash   string             `json:"linker_hash,omitempty"`
	SigningNonce uint64             `json:"signing_nonce"`
	Config       *chainstore.Config `json:"config"`
}

// State - the full reporter output
type State struct {
	Version          string                  `json:"core_version"`
	Chains           []ChainState            `json:"chains"`
	DebugSignatories []debugsigner.Signatory `json:"debug_signatories"`
}

// Report - assemble the snapshot for the given chains
//
// chains that are not initialised are skipped rather than failing
// the whole report
func Report(access storage.Access, ids []chainid.ChainID) (*State, error) {
	state := &State{
		Version: version.Version,
		Chains:  []ChainState{},
	}

	for _, id := range ids {
		store := chainstore.New(access, id)
		if !store.IsInitialised() {
			continue
		}
		chainState, err := reportChain(store, id)
		if nil != err {
			return nil, err
		}
		state.Chains = append(state.Chains, *chainState)
	}

	roster, err := debugsigner.NewRoster(access).All()
	if nil != err {
		return nil, err
	}
	if nil == roster {
		roster = []debugsigner.Signatory{}
	}
	state.DebugSignatories = roster
	return state, nil
}

func reportChain(store *chainstore.Store, id chainid.ChainID) (*ChainState, error) {
	chainState := &ChainState{
		ChainID:      id,
		SigningNonce: store.SigningNonce(),
	}

	config, err := store.GetConfig()
	if nil != err {
		return nil, err
	}
	chainState.Config = config

	pointers := []struct {
		name   string
		target *PointerState
	}{
		{chainstore.Anchor, &chainState.Anchor},
		{chainstore.Latest, &chainState.Latest},
		{chainstore.Canon, &chainState.Canon},
		{chainstore.Tail, &chainState.Tail},
	}
	for _, p := range pointers {
		hash, err := store.Pointer(p.name)
		if nil != err {
			return nil, err
		}
		record, err := store.GetBlock(hash)
		if nil != err {
			return nil, err
		}
		p.target.Hash = hash
		p.target.Height = record.Height
	}

	linker, err := store.LinkerHash()
	if fault.LinkerHashMissing != err {
		if nil != err {
			return nil, err
		}
		chainState.LinkerHash = linker.String()
	}

	return chainState, nil
}
