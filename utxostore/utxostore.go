// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package utxostore - spendable deposit outputs
//
// outputs paying the bridge deposit addresses are banked when their
// block is canonised and consumed when a peg-out transaction for the
// UTXO chain is materialised
//
// the whole set is held under one storage key; the engine transaction
// makes read-modify-write of the set atomic
package utxostore

import (
	"encoding/binary"

	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/storage"
	"github.com/crossmark-inc/pegcored/util"
)

// Record - one spendable output
type Record struct {
	TxID         blockdigest.Digest `json:"txid"`
	Vout         uint32             `json:"vout"`
	Value        uint64             `json:"value"`
	Address      string             `json:"address"`
	RedeemScript []byte             `json:"redeem_script"`
}

// Store - utxo set handle bound to one chain
type Store struct {
	access storage.Access
	key    []byte
}

// New - bind a utxo set to a chain id
func New(access storage.Access, id chainid.ChainID) *Store {
	return &Store{
		access: access,
		key:    []byte("chain/" + id.String()[2:] + "/utxos"),
	}
}

// All - the current utxo set in banked order
func (s *Store) All() ([]Record, error) {
	buffer, err := s.access.Get(s.key)
	if fault.NotFound == err {
		return nil, nil
	}
	if nil != err {
		return nil, err
	}
	return unpackSet(buffer)
}

// Add - bank newly detected outputs
func (s *Store) Add(records []Record) error {
	if 0 == len(records) {
		return nil
	}
	set, err := s.All()
	if nil != err {
		return err
	}
	set = append(set, records...)
	s.access.Put(s.key, packSet(set), storage.SensitivityNone)
	return nil
}

// Consume - remove outputs totalling at least amount, oldest first
//
// returns the consumed outputs and the change remaining after amount
func (s *Store) Consume(amount uint64) ([]Record, uint64, error) {
	set, err := s.All()
	if nil != err {
		return nil, 0, err
	}

	total := uint64(0)
	n := 0
	for _, r := range set {
		total += r.Value
		n += 1
		if total >= amount {
			break
		}
	}
	if total < amount {
		return nil, 0, fault.InsufficientUtxoValue
	}

	consumed := set[:n]
	s.access.Put(s.key, packSet(set[n:]), storage.SensitivityNone)
	return consumed, total - amount, nil
}

// Balance - sum of all banked output values
func (s *Store) Balance() (uint64, error) {
	set, err := s.All()
	if nil != err {
		return 0, err
	}
	total := uint64(0)
	for _, r := range set {
		total += r.Value
	}
	return total, nil
}

// pack a utxo set
//
// varint count then per record: txid, vout, value, varint prefixed
// address and redeem script
func packSet(set []Record) []byte {
	buffer := util.ToVarint64(uint64(len(set)))
	for _, r := range set {
		buffer = append(buffer, r.TxID[:]...)
		n := make([]byte, 12)
		binary.LittleEndian.PutUint32(n[0:], r.Vout)
		binary.LittleEndian.PutUint64(n[4:], r.Value)
		buffer = append(buffer, n...)
		buffer = append(buffer, util.ToVarint64(uint64(len(r.Address)))...)
		buffer = append(buffer, r.Address...)
		buffer = append(buffer, util.ToVarint64(uint64(len(r.RedeemScript)))...)
		buffer = append(buffer, r.RedeemScript...)
	}
	return buffer
}

func unpackSet(buffer []byte) ([]Record, error) {
	count, n := util.FromVarint64(buffer)
	if 0 == n {
		return nil, fault.InvalidStructure
	}
	buffer = buffer[n:]

	set := make([]Record, 0, count)
	for i := uint64(0); i < count; i += 1 {
		if len(buffer) < blockdigest.Length+12 {
			return nil, fault.InvalidStructure
		}
		r := Record{}
		copy(r.TxID[:], buffer[:blockdigest.Length])
		buffer = buffer[blockdigest.Length:]
		r.Vout = binary.LittleEndian.Uint32(buffer[0:])
		r.Value = binary.LittleEndian.Uint64(buffer[4:])
		buffer = buffer[12:]

		length, n := util.FromVarint64(buffer)
		if 0 == n || uint64(len(buffer)-n) < length {
			return nil, fault.InvalidStructure
		}
		r.Address = string(buffer[n : n+int(length)])
		buffer = buffer[n+int(length):]

		length, n = util.FromVarint64(buffer)
		if 0 == n || uint64(len(buffer)-n) < length {
			return nil, fault.InvalidStructure
		}
		r.RedeemScript = make([]byte, length)
		copy(r.RedeemScript, buffer[n:n+int(length)])
		buffer = buffer[n+int(length):]

		set = append(set, r)
	}
	if 0 != len(buffer) {
		return nil, fault.InvalidStructure
	}
	return set, nil
}
