// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peg

import (
	"math/big"

	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/utxostore"
)

// SignedTx - one materialised partner-chain transaction
//
// Raw is the fully encoded transaction where the destination family
// has a native encoding (EVM); otherwise Payload carries the
// canonical bytes that were signed and Signature the detached
// signature over them
type SignedTx struct {
	ChainID   chainid.ChainID `json:"chain_id"`
	Recipient string          `json:"recipient"`
	Amount    *big.Int        `json:"amount"`
	Nonce     uint64          `json:"nonce"`
	Raw       []byte          `json:"raw,omitempty"`
	Payload   []byte          `json:"payload,omitempty"`
	Signature []byte          `json:"signature,omitempty"`
}

// Batch - the input to one materialisation round
//
// Nonce is the first partner-chain signing nonce to use; Utxos are
// the spendable outputs available when the destination is a UTXO
// chain
type Batch struct {
	Events []*Event
	Nonce  uint64
	Utxos  *utxostore.Store
}

// Materialiser - turns peg events into signed partner-chain
// transactions
//
// implementations are provided per destination family and call the
// injected signer; they perform no storage access beyond the utxo
// store handed in the batch
type Materialiser interface {
	DestinationID() chainid.ChainID
	Materialise(batch *Batch) ([]*SignedTx, error)
}
