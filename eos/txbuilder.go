// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package eos

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/currency"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/peg"
	"github.com/crossmark-inc/pegcored/signer"
)

// TxBuilder - materialises peg events into signed EOS actions
//
// the canonical action bytes are handed to the injected signer; the
// output carries the payload and the detached signature, assembled
// into a pushable transaction by the broadcaster
type TxBuilder struct {
	destination chainid.ChainID
	contract    string
	account     string
	host        signer.Signer
}

// NewTxBuilder - bind a builder to the partner chain token contract
func NewTxBuilder(destination chainid.ChainID, contract string, account string, host signer.Signer) (*TxBuilder, error) {
	if err := currency.Eos.ValidateAddress(contract, false); nil != err {
		return nil, err
	}
	if err := currency.Eos.ValidateAddress(account, false); nil != err {
		return nil, err
	}
	return &TxBuilder{
		destination: destination,
		contract:    contract,
		account:     account,
		host:        host,
	}, nil
}

// DestinationID - the partner chain this builder emits for
func (b *TxBuilder) DestinationID() chainid.ChainID {
	return b.destination
}

// Materialise - one signed transfer action per peg event
func (b *TxBuilder) Materialise(batch *peg.Batch) ([]*peg.SignedTx, error) {
	result := make([]*peg.SignedTx, 0, len(batch.Events))

	nonce := batch.Nonce
	for _, event := range batch.Events {
		if err := currency.Eos.ValidateAddress(event.Recipient, false); nil != err {
			return nil, err
		}
		if nil == event.Amount || !event.Amount.IsUint64() {
			return nil, fault.InvalidPegEvent
		}

		action := Action{
			Account:  b.contract,
			Name:     "transfer",
			From:     b.account,
			To:       event.Recipient,
			Quantity: FormatQuantity(event.Amount, "EOS"),
			Memo:     string(event.Metadata),
		}

		payload := actionPayload(action, nonce)
		sig, err := b.host.Sign(payload)
		if nil != err {
			return nil, err
		}

		result = append(result, &peg.SignedTx{
			ChainID:   b.destination,
			Recipient: event.Recipient,
			Amount:    event.Amount,
			Nonce:     nonce,
			Payload:   payload,
			Signature: sig,
		})
		nonce += 1
	}
	return result, nil
}

// the signed bytes: canonical action digest plus the big endian
// signing nonce, binding replay protection into the signature
func actionPayload(action Action, nonce uint64) []byte {
	digest := ActionDigest(action)
	payload := make([]byte, 0, len(digest)+8)
	payload = append(payload, digest[:]...)
	n := make([]byte, 8)
	binary.BigEndian.PutUint64(n, nonce)
	return append(payload, n...)
}

// FormatQuantity - smallest units into the four decimal text form
func FormatQuantity(amount *big.Int, symbol string) string {
	units := amount.Uint64()
	return fmt.Sprintf("%d.%04d %s", units/assetPrecision, units%assetPrecision, symbol)
}
