// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bitcoin

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/peg"
	"github.com/crossmark-inc/pegcored/signer"
	"github.com/crossmark-inc/pegcored/utxostore"
)

// flat miner fee per peg-out transaction in satoshi
const defaultMinerFee = 20000

// outputs below this value are withheld as extra fee
const dustLimit = 546

// TxBuilder - materialises peg events into signed UTXO transactions
//
// inputs are drawn from the banked deposit outputs; the injected
// signer must return DER encoded signatures over the sighash
type TxBuilder struct {
	destination chainid.ChainID
	params      *chaincfg.Params
	minerFee    uint64
	host        signer.Signer
}

// NewTxBuilder - bind a builder to the partner UTXO chain
func NewTxBuilder(destination chainid.ChainID, host signer.Signer) (*TxBuilder, error) {
	builder := &TxBuilder{
		destination: destination,
		minerFee:    defaultMinerFee,
		host:        host,
	}
	switch destination {
	case chainid.BitcoinMainnet:
		builder.params = &chaincfg.MainNetParams
	case chainid.BitcoinTestnet:
		builder.params = &chaincfg.TestNet3Params
	case chainid.LitecoinMainnet:
		builder.params = &litecoinMainNetParams
	default:
		return nil, fault.IncorrectChainIdentifier
	}
	return builder, nil
}

// DestinationID - the partner chain this builder emits for
func (b *TxBuilder) DestinationID() chainid.ChainID {
	return b.destination
}

// Materialise - one signed transaction per peg event
//
// consumed outputs leave the utxo set inside the caller's storage
// transaction, so a failed submission restores them
func (b *TxBuilder) Materialise(batch *peg.Batch) ([]*peg.SignedTx, error) {
	if nil == batch.Utxos {
		return nil, fault.MissingParameters
	}

	result := make([]*peg.SignedTx, 0, len(batch.Events))
	nonce := batch.Nonce

	for _, event := range batch.Events {
		if nil == event.Amount || !event.Amount.IsUint64() {
			return nil, fault.InvalidPegEvent
		}
		amount := event.Amount.Uint64()

		consumed, change, err := batch.Utxos.Consume(amount + b.minerFee)
		if nil != err {
			return nil, err
		}

		tx, err := b.buildTransaction(event.Recipient, amount, change, consumed)
		if nil != err {
			return nil, err
		}

		buffer := &bytes.Buffer{}
		if err := tx.Serialize(buffer); nil != err {
			return nil, err
		}

		result = append(result, &peg.SignedTx{
			ChainID:   b.destination,
			Recipient: event.Recipient,
			Amount:    event.Amount,
			Nonce:     nonce,
			Raw:       buffer.Bytes(),
		})
		nonce += 1
	}
	return result, nil
}

func (b *TxBuilder) buildTransaction(recipient string, amount uint64, change uint64, consumed []utxostore.Record) (*wire.MsgTx, error) {

	address, err := btcutil.DecodeAddress(recipient, b.params)
	if nil != err {
		return nil, fault.CannotDecodeAddress
	}
	payScript, err := txscript.PayToAddrScript(address)
	if nil != err {
		return nil, err
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	for _, input := range consumed {
		var txId chainhash.Hash
		copy(txId[:], input.TxID[:])
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&txId, input.Vout), nil, nil))
	}
	tx.AddTxOut(wire.NewTxOut(int64(amount), payScript))

	// change returns to the first consumed deposit address
	if change > dustLimit {
		changeAddress, err := btcutil.DecodeAddress(consumed[0].Address, b.params)
		if nil != err {
			return nil, fault.CannotDecodeAddress
		}
		changeScript, err := txscript.PayToAddrScript(changeAddress)
		if nil != err {
			return nil, err
		}
		tx.AddTxOut(wire.NewTxOut(int64(change), changeScript))
	}

	// sign every input against its own redeem script
	for i, input := range consumed {
		sighash, err := txscript.CalcSignatureHash(input.RedeemScript, txscript.SigHashAll, tx, i)
		if nil != err {
			return nil, err
		}
		sig, err := b.host.Sign(sighash)
		if nil != err {
			return nil, err
		}
		scriptSig, err := txscript.NewScriptBuilder().
			AddData(append(sig, byte(txscript.SigHashAll))).
			AddData(input.RedeemScript).
			Script()
		if nil != err {
			return nil, err
		}
		tx.TxIn[i].SignatureScript = scriptSig
	}

	return tx, nil
}
