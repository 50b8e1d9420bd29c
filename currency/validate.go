// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package currency

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/crossmark-inc/pegcored/fault"
)

// address version bytes
// from: https://en.bitcoin.it/wiki/List_of_address_prefixes
const (
	btcLivenet       byte = 0
	btcLivenetScript byte = 5
	btcTestnet       byte = 111
	btcTestnetScript byte = 196

	ltcLivenet        byte = 48
	ltcLivenetScript  byte = 50
	ltcLivenetScript2 byte = 5
	ltcTestnet        byte = 111
	ltcTestnetScript  byte = 58
)

var algoBase32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// ValidateAddress - check an address is valid for its asset class
//
// testnet selects the test network version bytes for the UTXO classes
func (currency Currency) ValidateAddress(address string, testnet bool) error {
	switch currency {
	case Bitcoin:
		return validateBase58Address(address, testnet, btcLivenet, btcLivenetScript, btcTestnet, btcTestnetScript)
	case Litecoin:
		if !testnet && validateBase58Address(address, false, ltcLivenet, ltcLivenetScript2) == nil {
			return nil
		}
		return validateBase58Address(address, testnet, ltcLivenet, ltcLivenetScript, ltcTestnet, ltcTestnetScript)
	case Ethereum:
		return validateEthereumAddress(address)
	case Eos:
		return validateEosAccount(address)
	case Algorand:
		return validateAlgorandAddress(address)
	default:
		return fault.InvalidCurrency
	}
}

// base58check with a double sha256 checksum over version and hash160
func validateBase58Address(address string, testnet bool, versions ...byte) error {

	addr := base58.Decode(address)
	if 25 != len(addr) {
		return fault.InvalidCurrencyAddress
	}

	h := sha256.New()
	h.Write(addr[:21])
	d := h.Sum([]byte{})
	h = sha256.New()
	h.Write(d)
	d = h.Sum([]byte{})

	if !bytes.Equal(d[0:4], addr[21:]) {
		return fault.InvalidCurrencyAddress
	}

	start := 0
	end := len(versions)
	if end > 2 {
		// versions list is livenet pair then testnet pair
		if testnet {
			start = 2
		} else {
			end = 2
		}
	}
	for _, v := range versions[start:end] {
		if v == addr[0] {
			return nil
		}
	}
	return fault.InvalidCurrencyAddress
}

// 20 byte hex with mandatory 0x prefix, case insensitive
func validateEthereumAddress(address string) error {
	if 42 != len(address) || "0x" != address[0:2] {
		return fault.InvalidCurrencyAddress
	}
	_, err := hex.DecodeString(address[2:])
	if nil != err {
		return fault.InvalidCurrencyAddress
	}
	return nil
}

// native account name: 1..12 characters from a-z 1-5 and '.'
// must not begin or end with '.'
func validateEosAccount(account string) error {
	if 0 == len(account) || len(account) > 12 {
		return fault.InvalidCurrencyAddress
	}
	if strings.HasPrefix(account, ".") || strings.HasSuffix(account, ".") {
		return fault.InvalidCurrencyAddress
	}
	for _, c := range account {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '1' && c <= '5':
		case '.' == c:
		default:
			return fault.InvalidCurrencyAddress
		}
	}
	return nil
}

// 58 character base32 form of public key plus 4 byte sha512/256 checksum
func validateAlgorandAddress(address string) error {
	if 58 != len(address) {
		return fault.InvalidCurrencyAddress
	}
	decoded, err := algoBase32.DecodeString(address)
	if nil != err || 36 != len(decoded) {
		return fault.InvalidCurrencyAddress
	}
	checksum := sha512.Sum512_256(decoded[:32])
	if !bytes.Equal(checksum[28:], decoded[32:]) {
		return fault.InvalidCurrencyAddress
	}
	return nil
}
