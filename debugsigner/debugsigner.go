// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package debugsigner - quorum gate over privileged operations
//
// every privileged mutation carries a secp256k1 signature over the
// canonical byte encoding of the request; the recovering address must
// be in the current signatory roster and the embedded nonce must
// match that signatory's stored nonce
//
// the first signatory is installed by the initialiser's trusted path;
// all later roster changes pass the gate themselves
package debugsigner

import (
	"encoding/binary"
	"encoding/json"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/storage"
	"github.com/crossmark-inc/pegcored/util"
)

// the single roster key, shared by every chain of a core instance
var rosterKey = []byte("debug_signers")

// Signatory - one roster entry
type Signatory struct {
	Address string `json:"eth_address"`
	Nonce   uint64 `json:"nonce"`
}

// Roster - ordered signatory list handle
//
// ordering is insertion order and is preserved across mutations
type Roster struct {
	access storage.Access
}

// NewRoster - bind a roster to the storage facade
func NewRoster(access storage.Access) *Roster {
	return &Roster{access: access}
}

// All - the current roster in insertion order
func (r *Roster) All() ([]Signatory, error) {
	buffer, err := r.access.Get(rosterKey)
	if fault.NotFound == err {
		return nil, nil
	}
	if nil != err {
		return nil, err
	}
	var roster []Signatory
	err = json.Unmarshal(buffer, &roster)
	if nil != err {
		return nil, err
	}
	return roster, nil
}

func (r *Roster) put(roster []Signatory) error {
	buffer, err := json.Marshal(roster)
	if nil != err {
		return err
	}
	r.access.Put(rosterKey, buffer, storage.SensitivityNone)
	return nil
}

// InstallFirst - the trusted bootstrap path
//
// only valid while the roster is empty; later additions must pass
// the gate
func (r *Roster) InstallFirst(address string) error {
	if err := checkAddress(address); nil != err {
		return err
	}
	roster, err := r.All()
	if nil != err {
		return err
	}
	if 0 != len(roster) {
		return fault.Unauthorised
	}
	return r.put([]Signatory{{Address: normalise(address)}})
}

// CanonicalEncoding - the byte form that is signed
//
// length prefixed action tag and payload followed by the big endian
// signatory nonce
func CanonicalEncoding(action string, payload []byte, nonce uint64) []byte {
	buffer := util.ToVarint64(uint64(len(action)))
	buffer = append(buffer, action...)
	buffer = append(buffer, util.ToVarint64(uint64(len(payload)))...)
	buffer = append(buffer, payload...)
	n := make([]byte, 8)
	binary.BigEndian.PutUint64(n, nonce)
	return append(buffer, n...)
}

// CommandHash - keccak digest of the canonical encoding
func CommandHash(action string, payload []byte, nonce uint64) []byte {
	return crypto.Keccak256(CanonicalEncoding(action, payload, nonce))
}

// Authorise - validate a request signature and burn the nonce
//
// tries every signatory: the encoding embeds that signatory's stored
// nonce, recovery must yield that signatory's address; on success the
// nonce is incremented and persisted
func (r *Roster) Authorise(action string, payload []byte, signature []byte) error {
	roster, err := r.All()
	if nil != err {
		return err
	}
	if 0 == len(roster) {
		return fault.RosterIsEmpty
	}
	if 65 != len(signature) {
		return fault.Unauthorised
	}

	// accept the conventional 27/28 recovery byte
	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	for i, signatory := range roster {
		hash := CommandHash(action, payload, signatory.Nonce)
		publicKey, err := crypto.SigToPub(hash, sig)
		if nil != err {
			continue
		}
		recovered := crypto.PubkeyToAddress(*publicKey)
		if normalise(recovered.Hex()) == signatory.Address {
			roster[i].Nonce += 1
			return r.put(roster)
		}
	}
	return fault.Unauthorised
}

// Add - gated roster addition
//
// the payload signed is the normalised address being added
func (r *Roster) Add(address string, signature []byte) error {
	if err := checkAddress(address); nil != err {
		return err
	}
	err := r.Authorise("add-debug-signer", []byte(normalise(address)), signature)
	if nil != err {
		return err
	}
	roster, err := r.All()
	if nil != err {
		return err
	}
	for _, signatory := range roster {
		if signatory.Address == normalise(address) {
			return fault.SignatoryAlreadyExists
		}
	}
	return r.put(append(roster, Signatory{Address: normalise(address)}))
}

// AddBatch - one signature authorises several additions
//
// the payload signed is the newline joined list of normalised
// addresses; the batch applies in one roster write or not at all
func (r *Roster) AddBatch(addresses []string, signature []byte) error {
	if 0 == len(addresses) {
		return fault.MissingParameters
	}
	normalised := make([]string, len(addresses))
	for i, address := range addresses {
		if err := checkAddress(address); nil != err {
			return err
		}
		normalised[i] = normalise(address)
	}
	err := r.Authorise("add-debug-signers", []byte(strings.Join(normalised, "\n")), signature)
	if nil != err {
		return err
	}
	roster, err := r.All()
	if nil != err {
		return err
	}
	for _, address := range normalised {
		for _, signatory := range roster {
			if signatory.Address == address {
				return fault.SignatoryAlreadyExists
			}
		}
		roster = append(roster, Signatory{Address: address})
	}
	return r.put(roster)
}

// Remove - gated roster removal
func (r *Roster) Remove(address string, signature []byte) error {
	if err := checkAddress(address); nil != err {
		return err
	}
	err := r.Authorise("remove-debug-signer", []byte(normalise(address)), signature)
	if nil != err {
		return err
	}
	roster, err := r.All()
	if nil != err {
		return err
	}
	for i, signatory := range roster {
		if signatory.Address == normalise(address) {
			return r.put(append(roster[:i], roster[i+1:]...))
		}
	}
	return fault.SignatoryNotFound
}

func normalise(address string) string {
	return strings.ToLower(address)
}

func checkAddress(address string) error {
	if !ethcommon.IsHexAddress(address) {
		return fault.CannotDecodeAddress
	}
	return nil
}
