// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package currency_test

import (
	"crypto/sha512"
	"encoding/base32"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/crossmark-inc/pegcored/currency"
)

func TestCurrencyStrings(t *testing.T) {

	testData := []struct {
		c      currency.Currency
		symbol string
	}{
		{currency.Bitcoin, "BTC"},
		{currency.Litecoin, "LTC"},
		{currency.Ethereum, "ETH"},
		{currency.Eos, "EOS"},
		{currency.Algorand, "ALGO"},
	}

	for i, item := range testData {
		if item.c.String() != item.symbol {
			t.Errorf("%d: symbol: %q  expected: %q", i, item.c.String(), item.symbol)
		}
		buffer, err := item.c.MarshalText()
		if nil != err {
			t.Fatalf("%d: marshal error: %s", i, err)
		}
		var back currency.Currency
		err = back.UnmarshalText(buffer)
		if nil != err {
			t.Fatalf("%d: unmarshal error: %s", i, err)
		}
		if back != item.c {
			t.Errorf("%d: round trip: %d  expected: %d", i, back, item.c)
		}
	}
}

// build a base58check address with the given version byte
func checkAddress(version byte) string {
	payload := make([]byte, 20)
	for i := range payload {
		payload[i] = byte(i + 1)
	}
	return base58.CheckEncode(payload, version)
}

// build an algorand address for an arbitrary public key
func algorandAddress() string {
	publicKey := make([]byte, 32)
	for i := range publicKey {
		publicKey[i] = byte(0xa0 + i)
	}
	checksum := sha512.Sum512_256(publicKey)
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return enc.EncodeToString(append(publicKey, checksum[28:]...))
}

func TestValidateAddress(t *testing.T) {

	testData := []struct {
		c       currency.Currency
		address string
		testnet bool
		ok      bool
	}{
		{currency.Bitcoin, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", false, true},
		{currency.Bitcoin, checkAddress(0), false, true},
		{currency.Bitcoin, checkAddress(5), false, true},
		{currency.Bitcoin, checkAddress(111), true, true},
		{currency.Bitcoin, checkAddress(196), true, true},
		{currency.Bitcoin, checkAddress(111), false, false},  // testnet version on livenet
		{currency.Bitcoin, "1A1zP1eP5QGefi2DMPTfTL5SLmv7Divfmb", false, false}, // broken checksum
		{currency.Bitcoin, "", false, false},
		{currency.Litecoin, checkAddress(48), false, true},
		{currency.Litecoin, checkAddress(50), false, true},
		{currency.Litecoin, checkAddress(5), false, true}, // deprecated script version
		{currency.Litecoin, checkAddress(58), true, true},
		{currency.Litecoin, checkAddress(48), true, false},
		{currency.Ethereum, "0x71C7656EC7ab88b098defB751B7401B5f6d8976F", false, true},
		{currency.Ethereum, "71C7656EC7ab88b098defB751B7401B5f6d8976F", false, false}, // missing prefix
		{currency.Ethereum, "0x71C7656EC7ab88b098defB751B7401B5f6d8976", false, false}, // short
		{currency.Ethereum, "0x71C7656EC7ab88b098defB751B7401B5f6d897zz", false, false},
		{currency.Eos, "binancecleos", false, true},
		{currency.Eos, "a", false, true},
		{currency.Eos, "eosio.token1", false, true},
		{currency.Eos, ".eosio", false, false},
		{currency.Eos, "eosio.", false, false},
		{currency.Eos, "toolongaccount", false, false},
		{currency.Eos, "UPPER", false, false},
		{currency.Algorand, algorandAddress(), false, true},
		{currency.Algorand, "SHORT", false, false},
	}

	for i, item := range testData {
		err := item.c.ValidateAddress(item.address, item.testnet)
		if item.ok && nil != err {
			t.Errorf("%d: %s address %q rejected: %s", i, item.c, item.address, err)
		}
		if !item.ok && nil == err {
			t.Errorf("%d: %s address %q unexpectedly accepted", i, item.c, item.address)
		}
	}
}
