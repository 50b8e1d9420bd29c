// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package algorand

import (
	"encoding/binary"

	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/currency"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/peg"
	"github.com/crossmark-inc/pegcored/signer"
)

// TxBuilder - materialises peg events into signed Algorand payments
//
// the canonical transaction bytes are handed to the injected signer;
// the output carries the payload and the detached ed25519 signature
type TxBuilder struct {
	destination chainid.ChainID
	sender      string
	assetID     uint64
	host        signer.Signer
}

// NewTxBuilder - bind a builder to the partner chain bridge account
func NewTxBuilder(destination chainid.ChainID, sender string, assetID uint64, host signer.Signer) (*TxBuilder, error) {
	if err := currency.Algorand.ValidateAddress(sender, false); nil != err {
		return nil, err
	}
	return &TxBuilder{
		destination: destination,
		sender:      sender,
		assetID:     assetID,
		host:        host,
	}, nil
}

// DestinationID - the partner chain this builder emits for
func (b *TxBuilder) DestinationID() chainid.ChainID {
	return b.destination
}

// Materialise - one signed transfer per peg event
func (b *TxBuilder) Materialise(batch *peg.Batch) ([]*peg.SignedTx, error) {
	result := make([]*peg.SignedTx, 0, len(batch.Events))

	nonce := batch.Nonce
	for _, event := range batch.Events {
		if err := currency.Algorand.ValidateAddress(event.Recipient, false); nil != err {
			return nil, err
		}
		if nil == event.Amount || !event.Amount.IsUint64() {
			return nil, fault.InvalidPegEvent
		}

		txnType := "pay"
		if 0 != b.assetID {
			txnType = "axfer"
		}
		txn := Txn{
			Type:     txnType,
			Sender:   b.sender,
			Receiver: event.Recipient,
			Amount:   event.Amount.Uint64(),
			AssetID:  b.assetID,
			Note:     string(event.Metadata),
		}

		payload := txnPayload(txn, nonce)
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

// the signed bytes: canonical transaction digest plus the big endian
// signing nonce
func txnPayload(txn Txn, nonce uint64) []byte {
	digest := TxnDigest(txn)
	payload := make([]byte, 0, len(digest)+8)
	payload = append(payload, digest[:]...)
	n := make([]byte, 8)
	binary.BigEndian.PutUint64(n, nonce)
	return append(payload, n...)
}
