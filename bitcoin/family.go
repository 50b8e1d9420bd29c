// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bitcoin - UTXO family light client capabilities
//
// covers Bitcoin main and test networks and, through the ltc
// parameter set, Litecoin
package bitcoin

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/chain"
	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/chainstore"
	"github.com/crossmark-inc/pegcored/currency"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/merkle"
	"github.com/crossmark-inc/pegcored/peg"
	"github.com/crossmark-inc/pegcored/utxostore"
)

// a block may be up to this far behind its parent
const timestampTolerance = 2 * 60 * 60

// the ltc parameter set
//
// only the address and network fields are used by the light client;
// proof of work for this chain is scrypt based and is checked for
// well-formedness only
var litecoinMainNetParams = chaincfg.Params{
	Name:             "litecoin-mainnet",
	Net:              wire.BitcoinNet(0xdbb6c0fb),
	PubKeyHashAddrID: 0x30,
	ScriptHashAddrID: 0x32,
	PrivateKeyID:     0xb0,
	Bech32HRPSegwit:  "ltc",
}

// Family - UTXO capability set bound to one configured chain
type Family struct {
	id          chainid.ChainID
	destination chainid.ChainID
	params      *chaincfg.Params
	asset       currency.Currency
	scryptPoW   bool
	linkerSeed  blockdigest.Digest
}

// DepositInfo - one bridge generated deposit address
//
// the feeder supplies the redeem script so banked outputs remain
// spendable; the address must be the p2sh form of that script
type DepositInfo struct {
	Address            string `json:"btc_deposit_address"`
	RedeemScript       string `json:"redeem_script"`
	DestinationAddress string `json:"destination_address"`
}

// submission material pushed by the external feeder
type submissionMaterial struct {
	BlockHex string        `json:"block"`
	Height   uint64        `json:"height"`
	Deposits []DepositInfo `json:"deposit_address_list"`
}

// New - build the capability set from a frozen chain configuration
func New(config *chainstore.Config) (*Family, error) {
	family := &Family{
		id:          config.ChainID,
		destination: config.DestinationChainID,
	}

	switch config.ChainID {
	case chainid.BitcoinMainnet:
		family.params = &chaincfg.MainNetParams
		family.asset = currency.Bitcoin
	case chainid.BitcoinTestnet:
		family.params = &chaincfg.TestNet3Params
		family.asset = currency.Bitcoin
	case chainid.LitecoinMainnet:
		family.params = &litecoinMainNetParams
		family.asset = currency.Litecoin
		family.scryptPoW = true
	default:
		return nil, fault.IncorrectChainIdentifier
	}

	family.linkerSeed = sha256d([]byte("utxo-linker-seed"))
	return family, nil
}

// ID - the configured metadata chain id
func (f *Family) ID() chainid.ChainID {
	return f.id
}

func (f *Family) decode(data []byte) (*submissionMaterial, *wire.MsgBlock, error) {
	material := &submissionMaterial{}
	if err := json.Unmarshal(data, material); nil != err {
		return nil, nil, fault.MalformedSubmission
	}
	raw, err := hex.DecodeString(material.BlockHex)
	if nil != err {
		return nil, nil, fault.MalformedSubmission
	}
	block := &wire.MsgBlock{}
	if err := block.Deserialize(bytes.NewReader(raw)); nil != err {
		return nil, nil, fault.CannotDecodeBlock
	}
	return material, block, nil
}

// ParseBlock - decode one submission into the light block form
//
// the header carries no height, so the feeder supplies it alongside
// the raw block
func (f *Family) ParseBlock(data []byte, anchor bool) (*chain.Block, error) {
	material, block, err := f.decode(data)
	if nil != err {
		return nil, err
	}
	if !anchor && 0 == len(block.Transactions) {
		return nil, fault.BlockBodyIsMissing
	}

	hash := block.BlockHash()
	return &chain.Block{
		Hash:      blockdigest.Digest(hash),
		Parent:    blockdigest.Digest(block.Header.PrevBlock),
		Root:      blockdigest.Digest(block.Header.MerkleRoot),
		Height:    material.Height,
		Timestamp: uint64(block.Header.Timestamp.Unix()),
		Work:      blockchain.CalcWork(block.Header.Bits),
		Body:      data,
	}, nil
}

// Validate - header digest, proof of work, linkage and merkle root
func (f *Family) Validate(block *chain.Block, parent *chain.Block) error {
	_, decoded, err := f.decode(block.Body)
	if nil != err {
		return err
	}

	hash := decoded.BlockHash()
	if blockdigest.Digest(hash) != block.Hash {
		return fault.BlockHashMismatch
	}

	target := blockchain.CompactToBig(decoded.Header.Bits)
	if target.Sign() <= 0 {
		return fault.InvalidBlockHeaderDifficulty
	}
	if !f.scryptPoW {
		if blockchain.HashToBig(&hash).Cmp(target) > 0 {
			return fault.InvalidProofOfWork
		}
	}

	if nil != parent {
		if block.Parent != parent.Hash {
			return fault.InvalidBlockLinkage
		}
		if block.Height != parent.Height+1 {
			return fault.InvalidBlockLinkage
		}
		if block.Timestamp+timestampTolerance <= parent.Timestamp {
			return fault.InvalidBlockHeaderTimestamp
		}

		// commitment checks are relaxed for the anchor only
		txIds := make([]blockdigest.Digest, len(decoded.Transactions))
		for i, tx := range decoded.Transactions {
			txIds[i] = blockdigest.Digest(tx.TxHash())
		}
		root := merkle.Root(txIds, sha256d)
		if root != blockdigest.Digest(decoded.Header.MerkleRoot) {
			return fault.InvalidMerkleRoot
		}
	}

	return nil
}

// ScanPegEvents - match p2sh deposits in a canonised block
//
// only the p2sh deposit form is recognised; p2pk, p2pkh and segwit
// payments to a deposit address are ignored and unrecoverable at
// this layer
func (f *Family) ScanPegEvents(block *chain.Block) ([]*peg.Event, error) {
	material, decoded, err := f.decode(block.Body)
	if nil != err {
		return nil, err
	}

	deposits, err := f.depositMap(material.Deposits)
	if nil != err {
		return nil, err
	}

	events := []*peg.Event{}
	for _, tx := range decoded.Transactions {
		destination := opReturnDestination(tx)

		for _, txOut := range tx.TxOut {
			info, found := f.matchDeposit(txOut.PkScript, deposits)
			if !found {
				continue
			}

			recipient := destination
			if "" == recipient {
				recipient = info.DestinationAddress
			}

			events = append(events, &peg.Event{
				Direction:        peg.In,
				SourceChain:      f.id,
				DestinationChain: f.destination,
				Asset:            f.asset,
				Amount:           satoshiAmount(txOut.Value),
				Recipient:        recipient,
				Metadata:         []byte(info.Address),
			})
		}
	}
	return events, nil
}

// ExtractUtxos - bank the deposit outputs of a canonised block
func (f *Family) ExtractUtxos(block *chain.Block) ([]utxostore.Record, error) {
	material, decoded, err := f.decode(block.Body)
	if nil != err {
		return nil, err
	}

	deposits, err := f.depositMap(material.Deposits)
	if nil != err {
		return nil, err
	}

	records := []utxostore.Record{}
	for _, tx := range decoded.Transactions {
		txId := tx.TxHash()
		for vout, txOut := range tx.TxOut {
			info, found := f.matchDeposit(txOut.PkScript, deposits)
			if !found {
				continue
			}
			redeem, err := hex.DecodeString(info.RedeemScript)
			if nil != err {
				return nil, fault.MalformedSubmission
			}
			records = append(records, utxostore.Record{
				TxID:         blockdigest.Digest(txId),
				Vout:         uint32(vout),
				Value:        uint64(txOut.Value),
				Address:      info.Address,
				RedeemScript: redeem,
			})
		}
	}
	return records, nil
}

// index the deposit list by address, rejecting entries whose address
// is not the p2sh form of the supplied redeem script
func (f *Family) depositMap(deposits []DepositInfo) (map[string]DepositInfo, error) {
	result := make(map[string]DepositInfo, len(deposits))
	for _, info := range deposits {
		redeem, err := hex.DecodeString(info.RedeemScript)
		if nil != err {
			return nil, fault.MalformedSubmission
		}
		address, err := btcutil.NewAddressScriptHash(redeem, f.params)
		if nil != err {
			return nil, fault.CannotDecodeAddress
		}
		if address.EncodeAddress() != info.Address {
			return nil, fault.CannotDecodeAddress
		}
		result[info.Address] = info
	}
	return result, nil
}

// match an output script against the deposit set; only the p2sh
// script class participates
func (f *Family) matchDeposit(pkScript []byte, deposits map[string]DepositInfo) (DepositInfo, bool) {
	class, addresses, _, err := txscript.ExtractPkScriptAddrs(pkScript, f.params)
	if nil != err || txscript.ScriptHashTy != class || 1 != len(addresses) {
		return DepositInfo{}, false
	}
	info, found := deposits[addresses[0].EncodeAddress()]
	return info, found
}

// the first OP_RETURN push of a transaction names the destination
// address on the partner chain
func opReturnDestination(tx *wire.MsgTx) string {
	for _, txOut := range tx.TxOut {
		if txscript.NullDataTy == txscript.GetScriptClass(txOut.PkScript) {
			pushes, err := txscript.PushedData(txOut.PkScript)
			if nil == err && len(pushes) > 0 && len(pushes[0]) > 0 {
				return string(pushes[0])
			}
		}
	}
	return ""
}

// LinkerDigest - double sha256 for the UTXO linker chain
func (f *Family) LinkerDigest(data []byte) blockdigest.Digest {
	return sha256d(data)
}

// LinkerSeed - substituted on the first linker fold
func (f *Family) LinkerSeed() blockdigest.Digest {
	return f.linkerSeed
}

func sha256d(data []byte) blockdigest.Digest {
	first := sha256.Sum256(data)
	return blockdigest.Digest(sha256.Sum256(first[:]))
}

func satoshiAmount(value int64) *big.Int {
	return new(big.Int).SetInt64(value)
}
