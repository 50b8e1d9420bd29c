// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdigest

import (
	"encoding/hex"
	"fmt"

	"github.com/crossmark-inc/pegcored/fault"
)

// Length - number of bytes in the digest
const Length = 32

// Digest - type for a block digest
//
// stored and displayed in the nominal byte order of the owning chain;
// no reversal is applied here, families that display reversed (UTXO
// chains) do so at their own boundary
type Digest [Length]byte

// DigestFromBytes - set a digest from a byte slice of exactly Length bytes
func DigestFromBytes(digest *Digest, buffer []byte) error {
	if Length != len(buffer) {
		return fault.InvalidKeyLength
	}
	copy(digest[:], buffer)
	return nil
}

// DigestFromHex - create a digest from a hex string, with or without
// a leading "0x"
func DigestFromHex(s string) (Digest, error) {
	if len(s) >= 2 && "0x" == s[0:2] {
		s = s[2:]
	}
	var digest Digest
	if hex.EncodedLen(Length) != len(s) {
		return digest, fault.InvalidKeyLength
	}
	buffer, err := hex.DecodeString(s)
	if nil != err {
		return digest, err
	}
	copy(digest[:], buffer)
	return digest, nil
}

// IsEmpty - check if a digest is all zero
func (digest Digest) IsEmpty() bool {
	return digest == Digest{}
}

// String - convert a binary digest to hex string for use by the fmt package (for %s)
func (digest Digest) String() string {
	return hex.EncodeToString(digest[:])
}

// GoString - convert a binary digest to hex string for use by the fmt package (for %#v)
func (digest Digest) GoString() string {
	return "<digest:" + hex.EncodeToString(digest[:]) + ">"
}

// Scan - convert a hex representation to a digest for use by the format package scan routines
func (digest *Digest) Scan(state fmt.ScanState, verb rune) error {
	token, err := state.Token(true, func(c rune) bool {
		if c >= '0' && c <= '9' {
			return true
		}
		if c >= 'A' && c <= 'F' {
			return true
		}
		if c >= 'a' && c <= 'f' {
			return true
		}
		return false
	})
	if nil != err {
		return err
	}
	if len(token) != hex.EncodedLen(Length) {
		return fault.InvalidKeyLength
	}
	buffer := make([]byte, hex.DecodedLen(len(token)))
	byteCount, err := hex.Decode(buffer, token)
	if nil != err {
		return err
	}
	if Length != byteCount {
		return fault.InvalidKeyLength
	}
	copy(digest[:], buffer)
	return nil
}

// MarshalText - convert digest to hex text
func (digest Digest) MarshalText() ([]byte, error) {
	size := hex.EncodedLen(Length)
	buffer := make([]byte, size)
	hex.Encode(buffer, digest[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into a digest
func (digest *Digest) UnmarshalText(s []byte) error {
	if len(s) >= 2 && '0' == s[0] && 'x' == s[1] {
		s = s[2:]
	}
	if len(s) != hex.EncodedLen(Length) {
		return fault.InvalidKeyLength
	}
	buffer := make([]byte, hex.DecodedLen(len(s)))
	byteCount, err := hex.Decode(buffer, s)
	if nil != err {
		return err
	}
	if Length != byteCount {
		return fault.InvalidKeyLength
	}
	copy(digest[:], buffer)
	return nil
}
