// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peg - peg events and their materialisation
//
// a peg event is derived from a canonised block exactly once; the
// materialiser turns recognised events into signed transactions for
// the partner chain through the injected signer
package peg

import (
	"math/big"

	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/currency"
)

// Direction - peg direction tag
type Direction int

// peg directions
const (
	In Direction = iota
	Out
)

// String - direction tag for output records
func (d Direction) String() string {
	if In == d {
		return "in"
	}
	return "out"
}

// MarshalText - convert a direction to text
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Event - one recognised cross-chain transfer
type Event struct {
	Direction        Direction         `json:"direction"`
	SourceChain      chainid.ChainID   `json:"source_chain_id"`
	DestinationChain chainid.ChainID   `json:"destination_chain_id"`
	Asset            currency.Currency `json:"asset"`
	Amount           *big.Int          `json:"amount"`
	Originator       string            `json:"originator"`
	Recipient        string            `json:"recipient"`
	Nonce            uint64            `json:"nonce"`
	Metadata         []byte            `json:"metadata_bytes"`
}

// AddressClass - the address class of a destination chain
func AddressClass(id chainid.ChainID) currency.Currency {
	switch id.Family() {
	case chainid.FamilyEVM, chainid.FamilyInterim:
		return currency.Ethereum
	case chainid.FamilyUTXO:
		if chainid.LitecoinMainnet == id {
			return currency.Litecoin
		}
		return currency.Bitcoin
	case chainid.FamilyEOS:
		return currency.Eos
	case chainid.FamilyAlgorand:
		return currency.Algorand
	default:
		return currency.Nothing
	}
}

// DivertToSafeAddress - replace a missing or malformed recipient
//
// the recipient is checked against the destination chain's address
// class; on failure the configured safe address is substituted so the
// funds remain recoverable
func (e *Event) DivertToSafeAddress(safeAddress string, testnet bool) bool {
	class := AddressClass(e.DestinationChain)
	if "" != e.Recipient && currency.Nothing != class {
		if nil == class.ValidateAddress(e.Recipient, testnet) {
			return false
		}
	}
	e.Recipient = safeAddress
	return true
}
