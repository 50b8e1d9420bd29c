// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bitcoin_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"

	"github.com/crossmark-inc/pegcored/bitcoin"
	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/peg"
	"github.com/crossmark-inc/pegcored/storage"
	"github.com/crossmark-inc/pegcored/utxostore"
)

// stand-in for the HSM; returns a fixed DER-shaped blob
type fakeHost struct{}

func (fakeHost) Sign(payload []byte) ([]byte, error) {
	return append([]byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01}, payload[0]), nil
}

func (fakeHost) PublicIdentity() string {
	return "fake"
}

func bankUtxos(t *testing.T, values ...uint64) *utxostore.Store {
	access := storage.NewMemoryAccess()
	assert.NoError(t, access.Begin(), "begin failed")

	address, _ := btcutil.NewAddressScriptHash(redeemScript, &chaincfg.MainNetParams)
	store := utxostore.New(access, chainid.BitcoinMainnet)

	records := make([]utxostore.Record, len(values))
	for i, value := range values {
		records[i] = utxostore.Record{
			TxID:         blockdigest.Digest{byte(i + 1)},
			Vout:         0,
			Value:        value,
			Address:      address.EncodeAddress(),
			RedeemScript: redeemScript,
		}
	}
	assert.NoError(t, store.Add(records), "banking failed")
	return store
}

func TestMaterialisePegOut(t *testing.T) {
	builder, err := bitcoin.NewTxBuilder(chainid.BitcoinMainnet, fakeHost{})
	assert.NoError(t, err, "builder construction failed")
	assert.Equal(t, chainid.BitcoinMainnet, builder.DestinationID(), "destination wrong")

	utxos := bankUtxos(t, 100000000) // one 1 BTC deposit
	recipient := "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

	batch := &peg.Batch{
		Events: []*peg.Event{
			{
				Direction: peg.Out,
				Amount:    big.NewInt(12300000),
				Recipient: recipient,
			},
		},
		Utxos: utxos,
	}

	txs, err := builder.Materialise(batch)
	assert.NoError(t, err, "materialise failed")
	assert.Len(t, txs, 1, "wrong tx count")

	// the raw bytes decode to a spendable-shaped transaction
	tx := wire.NewMsgTx(0)
	assert.NoError(t, tx.Deserialize(bytes.NewReader(txs[0].Raw)), "raw decode failed")
	assert.Len(t, tx.TxIn, 1, "wrong input count")
	assert.Len(t, tx.TxOut, 2, "payment and change outputs expected")
	assert.Equal(t, int64(12300000), tx.TxOut[0].Value, "payment value wrong")
	assert.NotEmpty(t, tx.TxIn[0].SignatureScript, "input not signed")

	// payment output pays the recipient
	address, _ := btcutil.DecodeAddress(recipient, &chaincfg.MainNetParams)
	expected, _ := txscript.PayToAddrScript(address)
	assert.Equal(t, expected, tx.TxOut[0].PkScript, "payment script wrong")

	// consumed outputs left the bank
	remaining, err := utxos.All()
	assert.NoError(t, err, "utxo read failed")
	assert.Empty(t, remaining, "consumed utxo still banked")
}

func TestMaterialiseInsufficientFunds(t *testing.T) {
	builder, _ := bitcoin.NewTxBuilder(chainid.BitcoinMainnet, fakeHost{})
	utxos := bankUtxos(t, 1000)

	batch := &peg.Batch{
		Events: []*peg.Event{{Amount: big.NewInt(12300000), Recipient: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"}},
		Utxos:  utxos,
	}
	_, err := builder.Materialise(batch)
	assert.Error(t, err, "underfunded peg-out accepted")
}

func TestMaterialiseSpansMultipleUtxos(t *testing.T) {
	builder, _ := bitcoin.NewTxBuilder(chainid.BitcoinMainnet, fakeHost{})
	utxos := bankUtxos(t, 60000, 60000)

	batch := &peg.Batch{
		Events: []*peg.Event{{Amount: big.NewInt(90000), Recipient: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"}},
		Utxos:  utxos,
	}
	txs, err := builder.Materialise(batch)
	assert.NoError(t, err, "materialise failed")

	tx := wire.NewMsgTx(0)
	assert.NoError(t, tx.Deserialize(bytes.NewReader(txs[0].Raw)), "raw decode failed")
	assert.Len(t, tx.TxIn, 2, "both utxos expected as inputs")
	for _, txIn := range tx.TxIn {
		assert.NotEmpty(t, txIn.SignatureScript, "input not signed")
	}
}
