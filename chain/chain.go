// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain - the per-family capability set
//
// each supported chain family provides parsing, validation, peg event
// scanning and the linker digest; the engine is generic over this
// interface and keeps all state in storage
package chain

import (
	"math/big"

	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/peg"
	"github.com/crossmark-inc/pegcored/utxostore"
)

// Block - the light block carrier common to all families
//
// transactions and receipts are carried opaquely in Body in the
// family's own encoding; for the anchor block the body may be empty
type Block struct {
	Hash      blockdigest.Digest `json:"hash"`
	Parent    blockdigest.Digest `json:"parent"`
	Root      blockdigest.Digest `json:"root"`
	Height    uint64             `json:"height,string"`
	Timestamp uint64             `json:"timestamp,string"`
	Work      *big.Int           `json:"work"`
	Body      []byte             `json:"-"`
}

// Family - capability set implemented once per chain family
//
// implementations are pure over their inputs: no storage access and
// no retained state beyond construction-time configuration
type Family interface {

	// ID - the metadata chain id this instance is configured for
	ID() chainid.ChainID

	// ParseBlock - decode one submission into the light block form
	//
	// anchor selects the initialisation relaxation: the body may be
	// absent and commitment roots are not checked later
	ParseBlock(data []byte, anchor bool) (*Block, error)

	// Validate - header self-consistency, parent linkage and
	// commitment well-formedness
	//
	// parent is nil only for the anchor block
	Validate(block *Block, parent *Block) error

	// ScanPegEvents - inspect a canonised block for peg events
	ScanPegEvents(block *Block) ([]*peg.Event, error)

	// LinkerDigest - the family digest used for linker hash folding
	LinkerDigest(data []byte) blockdigest.Digest

	// LinkerSeed - substituted for the linker hash on the first fold
	LinkerSeed() blockdigest.Digest
}

// UtxoExtractor - implemented by UTXO families whose deposits must
// be banked for later peg-out spending
type UtxoExtractor interface {
	ExtractUtxos(block *Block) ([]utxostore.Record, error)
}
