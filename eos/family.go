// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package eos - EOS family light client capabilities
package eos

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/chain"
	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/chainstore"
	"github.com/crossmark-inc/pegcored/currency"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/merkle"
	"github.com/crossmark-inc/pegcored/peg"
)

// token quantities carry four decimal places
const assetPrecision = 10000

const signaturePrefix = "SIG_K1_"

// Header - the light header form submitted by the feeder
type Header struct {
	BlockNum          uint64 `json:"block_num,string"`
	ID                string `json:"id"`
	Previous          string `json:"previous"`
	Timestamp         uint64 `json:"timestamp,string"`
	Producer          string `json:"producer"`
	ProducerSignature string `json:"producer_signature"`
	TransactionMroot  string `json:"transaction_mroot"`
	ActionMroot       string `json:"action_mroot"`
	ScheduleVersion   uint32 `json:"schedule_version"`
}

// Action - one flattened action trace
type Action struct {
	Account  string `json:"account"`
	Name     string `json:"name"`
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

// submission material pushed by the external feeder
type submissionMaterial struct {
	Block   *Header  `json:"block"`
	Actions []Action `json:"actions"`
}

// Family - EOS capability set bound to one configured chain
type Family struct {
	id          chainid.ChainID
	destination chainid.ChainID
	watch       map[string]bool
	linkerSeed  blockdigest.Digest
}

// New - build the capability set from a frozen chain configuration
func New(config *chainstore.Config) (*Family, error) {
	watch := make(map[string]bool, len(config.WatchAddresses))
	for _, account := range config.WatchAddresses {
		if err := currency.Eos.ValidateAddress(account, config.Testnet); nil != err {
			return nil, err
		}
		watch[account] = true
	}
	return &Family{
		id:          config.ChainID,
		destination: config.DestinationChainID,
		watch:       watch,
		linkerSeed:  blockdigest.Digest(sha256.Sum256([]byte("eos-linker-seed"))),
	}, nil
}

// ID - the configured metadata chain id
func (f *Family) ID() chainid.ChainID {
	return f.id
}

// CanonicalHeaderBytes - the binary form the block id commits to
//
// fixed numeric fields, the three digests, then the length prefixed
// producer name
func CanonicalHeaderBytes(header *Header) ([]byte, error) {
	previous, err := blockdigest.DigestFromHex(header.Previous)
	if nil != err {
		return nil, err
	}
	txMroot, err := blockdigest.DigestFromHex(header.TransactionMroot)
	if nil != err {
		return nil, err
	}
	actionMroot, err := blockdigest.DigestFromHex(header.ActionMroot)
	if nil != err {
		return nil, err
	}

	buffer := make([]byte, 20, 20+3*blockdigest.Length+1+len(header.Producer))
	binary.LittleEndian.PutUint64(buffer[0:], header.BlockNum)
	binary.LittleEndian.PutUint64(buffer[8:], header.Timestamp)
	binary.LittleEndian.PutUint32(buffer[16:], header.ScheduleVersion)
	buffer = append(buffer, previous[:]...)
	buffer = append(buffer, txMroot[:]...)
	buffer = append(buffer, actionMroot[:]...)
	buffer = append(buffer, byte(len(header.Producer)))
	buffer = append(buffer, header.Producer...)
	return buffer, nil
}

// ComputeID - the block id: header digest with the big endian block
// number embedded in the first four bytes
func ComputeID(header *Header) (blockdigest.Digest, error) {
	buffer, err := CanonicalHeaderBytes(header)
	if nil != err {
		return blockdigest.Digest{}, err
	}
	id := blockdigest.Digest(sha256.Sum256(buffer))
	binary.BigEndian.PutUint32(id[0:4], uint32(header.BlockNum))
	return id, nil
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
	if !anchor && nil == material.Actions {
		return nil, fault.BlockBodyIsMissing
	}

	header := material.Block
	id, err := blockdigest.DigestFromHex(header.ID)
	if nil != err {
		return nil, fault.MalformedSubmission
	}
	previous, err := blockdigest.DigestFromHex(header.Previous)
	if nil != err {
		return nil, fault.MalformedSubmission
	}
	actionMroot, err := blockdigest.DigestFromHex(header.ActionMroot)
	if nil != err {
		return nil, fault.MalformedSubmission
	}

	return &chain.Block{
		Hash:      id,
		Parent:    previous,
		Root:      actionMroot,
		Height:    header.BlockNum,
		Timestamp: header.Timestamp,
		Work:      big.NewInt(1), // longest chain rule
		Body:      data,
	}, nil
}

// Validate - block id, linkage, action commitment and producer
// signature well-formedness
func (f *Family) Validate(block *chain.Block, parent *chain.Block) error {
	material := submissionMaterial{}
	if err := json.Unmarshal(block.Body, &material); nil != err {
		return fault.MalformedSubmission
	}
	header := material.Block

	computed, err := ComputeID(header)
	if nil != err {
		return err
	}
	if computed != block.Hash {
		return fault.BlockHashMismatch
	}

	if err := checkSignature(header.ProducerSignature); nil != err {
		return err
	}

	if nil != parent {
		if block.Parent != parent.Hash {
			return fault.InvalidBlockLinkage
		}
		if block.Height != parent.Height+1 {
			return fault.InvalidBlockLinkage
		}
		// half second slots can share a unix second
		if block.Timestamp < parent.Timestamp {
			return fault.InvalidBlockHeaderTimestamp
		}

		// commitment checks are relaxed for the anchor only
		if actionRoot(material.Actions) != block.Root {
			return fault.InvalidMerkleRoot
		}
	}

	return nil
}

// ScanPegEvents - match transfers into the watched bridge accounts
func (f *Family) ScanPegEvents(block *chain.Block) ([]*peg.Event, error) {
	material := submissionMaterial{}
	if err := json.Unmarshal(block.Body, &material); nil != err {
		return nil, fault.MalformedSubmission
	}

	events := []*peg.Event{}
	for _, action := range material.Actions {
		if "transfer" != action.Name || !f.watch[action.To] {
			continue
		}
		amount, err := parseQuantity(action.Quantity)
		if nil != err {
			return nil, err
		}
		events = append(events, &peg.Event{
			Direction:        peg.In,
			SourceChain:      f.id,
			DestinationChain: f.destination,
			Asset:            currency.Eos,
			Amount:           amount,
			Originator:       action.From,
			Recipient:        action.Memo,
			Metadata:         []byte(action.Account),
		})
	}
	return events, nil
}

// LinkerDigest - sha256 for the EOS linker chain
func (f *Family) LinkerDigest(data []byte) blockdigest.Digest {
	return blockdigest.Digest(sha256.Sum256(data))
}

// LinkerSeed - substituted on the first linker fold
func (f *Family) LinkerSeed() blockdigest.Digest {
	return f.linkerSeed
}

// ActionDigest - canonical digest of one action trace
func ActionDigest(action Action) blockdigest.Digest {
	buffer := []byte{}
	for _, field := range []string{action.Account, action.Name, action.From, action.To, action.Quantity, action.Memo} {
		buffer = append(buffer, byte(len(field)))
		buffer = append(buffer, field...)
	}
	return blockdigest.Digest(sha256.Sum256(buffer))
}

// ActionRoot - merkle root over the canonical action digests
func ActionRoot(actions []Action) blockdigest.Digest {
	return actionRoot(actions)
}

func actionRoot(actions []Action) blockdigest.Digest {
	if 0 == len(actions) {
		return blockdigest.Digest{}
	}
	ids := make([]blockdigest.Digest, len(actions))
	for i, action := range actions {
		ids[i] = ActionDigest(action)
	}
	return merkle.Root(ids, func(data []byte) blockdigest.Digest {
		return blockdigest.Digest(sha256.Sum256(data))
	})
}

// a K1 signature is 65 bytes plus a 4 byte checksum under the text
// prefix
func checkSignature(signature string) error {
	if !strings.HasPrefix(signature, signaturePrefix) {
		return fault.InvalidProducerSignature
	}
	decoded, err := base58.Decode(signature[len(signaturePrefix):])
	if nil != err || 69 != len(decoded) {
		return fault.InvalidProducerSignature
	}
	return nil
}

// parse "1.2300 EOS" into smallest units
func parseQuantity(quantity string) (*big.Int, error) {
	parts := strings.SplitN(quantity, " ", 2)
	numeric := strings.SplitN(parts[0], ".", 2)

	whole, ok := new(big.Int).SetString(numeric[0], 10)
	if !ok {
		return nil, fault.InvalidPegEvent
	}
	result := new(big.Int).Mul(whole, big.NewInt(assetPrecision))

	if 2 == len(numeric) {
		fractionText := numeric[1]
		if len(fractionText) > 4 {
			return nil, fault.InvalidPegEvent
		}
		for len(fractionText) < 4 {
			fractionText += "0"
		}
		fraction, ok := new(big.Int).SetString(fractionText, 10)
		if !ok {
			return nil, fault.InvalidPegEvent
		}
		result.Add(result, fraction)
	}
	return result, nil
}
