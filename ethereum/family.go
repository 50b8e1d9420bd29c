// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ethereum - EVM family light client capabilities
package ethereum

import (
	"encoding/json"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/chain"
	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/chainstore"
	"github.com/crossmark-inc/pegcored/currency"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/peg"
)

// vault event signatures watched by the scanner
var (
	pegInTopic         = ethcommon.BytesToHash(crypto.Keccak256([]byte("PegIn(address,address,uint256,string)")))
	pegInMetadataTopic = ethcommon.BytesToHash(crypto.Keccak256([]byte("PegInMetadata(address,address,uint256,bytes)")))
)

// Family - EVM capability set bound to one configured chain
type Family struct {
	id              chainid.ChainID
	destination     chainid.ChainID
	vaults          []ethcommon.Address
	includeOriginTx bool
	linkerSeed      blockdigest.Digest
}

// submission material pushed by the external feeder
type submissionMaterial struct {
	Hash     *ethcommon.Hash  `json:"hash,omitempty"`
	Block    *types.Header    `json:"block"`
	Receipts []*types.Receipt `json:"receipts"`
}

// New - build the capability set from a frozen chain configuration
func New(config *chainstore.Config) (*Family, error) {
	vaults := make([]ethcommon.Address, 0, len(config.WatchAddresses))
	for _, address := range config.WatchAddresses {
		if !ethcommon.IsHexAddress(address) {
			return nil, fault.CannotDecodeAddress
		}
		vaults = append(vaults, ethcommon.HexToAddress(address))
	}
	return &Family{
		id:              config.ChainID,
		destination:     config.DestinationChainID,
		vaults:          vaults,
		includeOriginTx: config.IncludeOriginTxDetails,
		linkerSeed:      blockdigest.Digest(crypto.Keccak256Hash([]byte("evm-linker-seed"))),
	}, nil
}

// ID - the configured metadata chain id
func (f *Family) ID() chainid.ChainID {
	return f.id
}

// ParseBlock - decode one submission into the light block form
func (f *Family) ParseBlock(data []byte, anchor bool) (*chain.Block, error) {
	material := submissionMaterial{}
	if err := json.Unmarshal(data, &material); nil != err {
		return nil, fault.MalformedSubmission
	}
	if nil == material.Block {
		return nil, fault.MalformedSubmission
	}
	if !anchor && 0 == len(material.Receipts) {
		return nil, fault.BlockBodyIsMissing
	}

	header := material.Block
	hash := header.Hash()
	if nil != material.Hash {
		hash = *material.Hash
	}

	return &chain.Block{
		Hash:      blockdigest.Digest(hash),
		Parent:    blockdigest.Digest(header.ParentHash),
		Root:      blockdigest.Digest(header.ReceiptHash),
		Height:    header.Number.Uint64(),
		Timestamp: header.Time,
		Work:      new(big.Int).Set(header.Difficulty),
		Body:      data,
	}, nil
}

// Validate - header self-consistency, linkage and receipts commitment
func (f *Family) Validate(block *chain.Block, parent *chain.Block) error {
	material := submissionMaterial{}
	if err := json.Unmarshal(block.Body, &material); nil != err {
		return fault.MalformedSubmission
	}
	header := material.Block

	// declared hash must equal the header digest
	if blockdigest.Digest(header.Hash()) != block.Hash {
		return fault.BlockHashMismatch
	}

	if nil != parent {
		if block.Parent != parent.Hash {
			return fault.InvalidBlockLinkage
		}
		if block.Height != parent.Height+1 {
			return fault.InvalidBlockLinkage
		}
		if block.Timestamp <= parent.Timestamp {
			return fault.InvalidBlockHeaderTimestamp
		}

		// commitment checks are relaxed for the anchor only
		computed := types.DeriveSha(types.Receipts(material.Receipts), trie.NewStackTrie(nil))
		if computed != header.ReceiptHash {
			return fault.InvalidReceiptsRoot
		}
		for _, receipt := range material.Receipts {
			for _, log := range receipt.Logs {
				if !types.BloomLookup(header.Bloom, log.Address) {
					return fault.InvalidBloomFilter
				}
			}
		}
	}

	return nil
}

// ScanPegEvents - match vault log entries in a canonised block
//
// logs are filtered by vault address and peg-in topic signature; with
// origin details enabled a metadata event in the same receipt
// overrides the surface originator
func (f *Family) ScanPegEvents(block *chain.Block) ([]*peg.Event, error) {
	material := submissionMaterial{}
	if err := json.Unmarshal(block.Body, &material); nil != err {
		return nil, fault.MalformedSubmission
	}

	events := []*peg.Event{}
	for _, receipt := range material.Receipts {

		originator := ""
		if f.includeOriginTx {
			for _, log := range receipt.Logs {
				if f.watched(log.Address) && len(log.Topics) >= 3 && pegInMetadataTopic == log.Topics[0] {
					originator = ethcommon.BytesToAddress(log.Topics[2].Bytes()).Hex()
				}
			}
		}

		for _, log := range receipt.Logs {
			if !f.watched(log.Address) || 0 == len(log.Topics) || pegInTopic != log.Topics[0] {
				continue
			}
			event, err := f.parsePegIn(log, originator)
			if nil != err {
				return nil, err
			}
			events = append(events, event)
		}
	}
	return events, nil
}

// decode a peg-in log entry
//
// topics: token address, sender; data: uint256 amount then an ABI
// encoded destination string
func (f *Family) parsePegIn(log *types.Log, originator string) (*peg.Event, error) {
	if len(log.Topics) < 3 || len(log.Data) < 64 {
		return nil, fault.InvalidPegEvent
	}

	amount := new(big.Int).SetBytes(log.Data[0:32])
	destination, err := abiString(log.Data, 32)
	if nil != err {
		return nil, err
	}
	if "" == originator {
		originator = ethcommon.BytesToAddress(log.Topics[2].Bytes()).Hex()
	}

	return &peg.Event{
		Direction:        peg.In,
		SourceChain:      f.id,
		DestinationChain: f.destination,
		Asset:            currency.Ethereum,
		Amount:           amount,
		Originator:       originator,
		Recipient:        destination,
		Metadata:         log.Topics[1].Bytes(),
	}, nil
}

// extract a dynamic string from ABI encoded data given the offset
// word position
func abiString(data []byte, offsetWord int) (string, error) {
	if len(data) < offsetWord+32 {
		return "", fault.InvalidPegEvent
	}
	offset := new(big.Int).SetBytes(data[offsetWord : offsetWord+32])
	if !offset.IsUint64() || offset.Uint64()+32 > uint64(len(data)) {
		return "", fault.InvalidPegEvent
	}
	start := offset.Uint64()
	length := new(big.Int).SetBytes(data[start : start+32])
	if !length.IsUint64() || start+32+length.Uint64() > uint64(len(data)) {
		return "", fault.InvalidPegEvent
	}
	return string(data[start+32 : start+32+length.Uint64()]), nil
}

func (f *Family) watched(address ethcommon.Address) bool {
	for _, vault := range f.vaults {
		if vault == address {
			return true
		}
	}
	return false
}

// LinkerDigest - keccak256 for the EVM linker chain
func (f *Family) LinkerDigest(data []byte) blockdigest.Digest {
	return blockdigest.Digest(crypto.Keccak256Hash(data))
}

// LinkerSeed - substituted on the first linker fold
func (f *Family) LinkerSeed() blockdigest.Digest {
	return f.linkerSeed
}
