// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package algorand - Algorand family light client capabilities
package algorand

import (
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"golang.org/x/crypto/ed25519"

	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/chain"
	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/chainstore"
	"github.com/crossmark-inc/pegcored/currency"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/merkle"
	"github.com/crossmark-inc/pegcored/peg"
)

// domain separator for the block digest
const blockHashPrefix = "BH"

// Header - the light header form submitted by the feeder
type Header struct {
	Round     uint64 `json:"round,string"`
	Previous  string `json:"previous"`
	Seed      string `json:"seed"`
	Timestamp uint64 `json:"timestamp,string"`
	TxnRoot   string `json:"txn_root"`
	CertKey   string `json:"cert_key,omitempty"`
	CertSig   string `json:"cert_sig,omitempty"`
}

// Txn - one flattened transaction
type Txn struct {
	Type     string `json:"type"` // pay | axfer
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Amount   uint64 `json:"amount"`
	AssetID  uint64 `json:"asset_id,omitempty"`
	Note     string `json:"note,omitempty"`
}

// submission material pushed by the external feeder
type submissionMaterial struct {
	Block *Header `json:"block"`
	Txns  []Txn   `json:"transactions"`
}

// Family - Algorand capability set bound to one configured chain
type Family struct {
	id          chainid.ChainID
	destination chainid.ChainID
	watch       map[string]bool
	linkerSeed  blockdigest.Digest
}

// New - build the capability set from a frozen chain configuration
func New(config *chainstore.Config) (*Family, error) {
	watch := make(map[string]bool, len(config.WatchAddresses))
	for _, address := range config.WatchAddresses {
		if err := currency.Algorand.ValidateAddress(address, config.Testnet); nil != err {
			return nil, err
		}
		watch[address] = true
	}
	return &Family{
		id:          config.ChainID,
		destination: config.DestinationChainID,
		watch:       watch,
		linkerSeed:  blockdigest.Digest(sha512.Sum512_256([]byte("algorand-linker-seed"))),
	}, nil
}

// ID - the configured metadata chain id
func (f *Family) ID() chainid.ChainID {
	return f.id
}

// CanonicalHeaderBytes - the binary form the block digest commits to
func CanonicalHeaderBytes(header *Header) ([]byte, error) {
	previous, err := blockdigest.DigestFromHex(header.Previous)
	if nil != err {
		return nil, err
	}
	seed, err := blockdigest.DigestFromHex(header.Seed)
	if nil != err {
		return nil, err
	}
	txnRoot, err := blockdigest.DigestFromHex(header.TxnRoot)
	if nil != err {
		return nil, err
	}

	buffer := make([]byte, 16, 16+3*blockdigest.Length)
	binary.LittleEndian.PutUint64(buffer[0:], header.Round)
	binary.LittleEndian.PutUint64(buffer[8:], header.Timestamp)
	buffer = append(buffer, previous[:]...)
	buffer = append(buffer, seed[:]...)
	buffer = append(buffer, txnRoot[:]...)
	return buffer, nil
}

// ComputeID - the domain separated block digest
func ComputeID(header *Header) (blockdigest.Digest, error) {
	buffer, err := CanonicalHeaderBytes(header)
	if nil != err {
		return blockdigest.Digest{}, err
	}
	return blockdigest.Digest(sha512.Sum512_256(append([]byte(blockHashPrefix), buffer...))), nil
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
	if !anchor && nil == material.Txns {
		return nil, fault.BlockBodyIsMissing
	}

	header := material.Block
	id, err := ComputeID(header)
	if nil != err {
		return nil, fault.MalformedSubmission
	}
	previous, err := blockdigest.DigestFromHex(header.Previous)
	if nil != err {
		return nil, fault.MalformedSubmission
	}
	txnRoot, err := blockdigest.DigestFromHex(header.TxnRoot)
	if nil != err {
		return nil, fault.MalformedSubmission
	}

	return &chain.Block{
		Hash:      id,
		Parent:    previous,
		Root:      txnRoot,
		Height:    header.Round,
		Timestamp: header.Timestamp,
		Work:      big.NewInt(1), // longest chain rule
		Body:      data,
	}, nil
}

// Validate - round digest, certificate well-formedness, linkage and
// transaction commitment
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

	if err := checkCertificate(header, block.Hash); nil != err {
		return err
	}

	if nil != parent {
		if block.Parent != parent.Hash {
			return fault.InvalidBlockLinkage
		}
		if block.Height != parent.Height+1 {
			return fault.InvalidBlockLinkage
		}
		if block.Timestamp < parent.Timestamp {
			return fault.InvalidBlockHeaderTimestamp
		}

		// commitment checks are relaxed for the anchor only
		if txnRoot(material.Txns) != block.Root {
			return fault.InvalidMerkleRoot
		}
	}

	return nil
}

// ScanPegEvents - match payments and asset transfers into the
// watched application addresses
func (f *Family) ScanPegEvents(block *chain.Block) ([]*peg.Event, error) {
	material := submissionMaterial{}
	if err := json.Unmarshal(block.Body, &material); nil != err {
		return nil, fault.MalformedSubmission
	}

	events := []*peg.Event{}
	for _, txn := range material.Txns {
		if "pay" != txn.Type && "axfer" != txn.Type {
			continue
		}
		if !f.watch[txn.Receiver] {
			continue
		}
		events = append(events, &peg.Event{
			Direction:        peg.In,
			SourceChain:      f.id,
			DestinationChain: f.destination,
			Asset:            currency.Algorand,
			Amount:           new(big.Int).SetUint64(txn.Amount),
			Originator:       txn.Sender,
			Recipient:        txn.Note,
			Nonce:            txn.AssetID,
			Metadata:         []byte(txn.Type),
		})
	}
	return events, nil
}

// LinkerDigest - sha512/256 for the Algorand linker chain
func (f *Family) LinkerDigest(data []byte) blockdigest.Digest {
	return blockdigest.Digest(sha512.Sum512_256(data))
}

// LinkerSeed - substituted on the first linker fold
func (f *Family) LinkerSeed() blockdigest.Digest {
	return f.linkerSeed
}

// TxnDigest - canonical digest of one transaction
func TxnDigest(txn Txn) blockdigest.Digest {
	buffer := make([]byte, 16)
	binary.LittleEndian.PutUint64(buffer[0:], txn.Amount)
	binary.LittleEndian.PutUint64(buffer[8:], txn.AssetID)
	for _, field := range []string{txn.Type, txn.Sender, txn.Receiver, txn.Note} {
		buffer = append(buffer, byte(len(field)))
		buffer = append(buffer, field...)
	}
	return blockdigest.Digest(sha512.Sum512_256(buffer))
}

// TxnRoot - merkle root over the canonical transaction digests
func TxnRoot(txns []Txn) blockdigest.Digest {
	return txnRoot(txns)
}

func txnRoot(txns []Txn) blockdigest.Digest {
	if 0 == len(txns) {
		return blockdigest.Digest{}
	}
	ids := make([]blockdigest.Digest, len(txns))
	for i, txn := range txns {
		ids[i] = TxnDigest(txn)
	}
	return merkle.Root(ids, func(data []byte) blockdigest.Digest {
		return blockdigest.Digest(sha512.Sum512_256(data))
	})
}

// the seal certificate is optional; when present the participation
// key must verify the block digest
func checkCertificate(header *Header, id blockdigest.Digest) error {
	if "" == header.CertKey && "" == header.CertSig {
		return nil
	}
	key, err := hex.DecodeString(header.CertKey)
	if nil != err || ed25519.PublicKeySize != len(key) {
		return fault.InvalidSealCertificate
	}
	sig, err := hex.DecodeString(header.CertSig)
	if nil != err || ed25519.SignatureSize != len(sig) {
		return fault.InvalidSealCertificate
	}
	if !ed25519.Verify(ed25519.PublicKey(key), id[:], sig) {
		return fault.InvalidSealCertificate
	}
	return nil
}
