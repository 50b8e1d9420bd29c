// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainid_test

import (
	"bytes"
	"testing"

	"github.com/crossmark-inc/pegcored/chainid"
)

// the wire values are external interface constants and must never drift
func TestWireConstants(t *testing.T) {

	testData := []struct {
		id       chainid.ChainID
		expected []byte
		symbol   string
	}{
		{chainid.EthereumMainnet, []byte{0x00, 0x5f, 0xe7, 0xf9}, "eth"},
		{chainid.BitcoinMainnet, []byte{0x01, 0xec, 0x97, 0xde}, "btc"},
		{chainid.LitecoinMainnet, []byte{0x01, 0x84, 0x04, 0x35}, "ltc"},
		{chainid.EosMainnet, []byte{0x02, 0xe7, 0x26, 0x1c}, "eos"},
		{chainid.AlgorandMainnet, []byte{0x03, 0xc3, 0x8e, 0x67}, "algo"},
		{chainid.InterimChain, []byte{0xff, 0xff, 0xff, 0xff}, "interim"},
	}

	for i, item := range testData {
		if !bytes.Equal(item.id.Bytes(), item.expected) {
			t.Errorf("%d: wire bytes: %x  expected: %x", i, item.id.Bytes(), item.expected)
		}
		back, err := chainid.FromBytes(item.expected)
		if nil != err {
			t.Fatalf("%d: FromBytes error: %s", i, err)
		}
		if back != item.id {
			t.Errorf("%d: FromBytes: %s  expected: %s", i, back, item.id)
		}
		sym, err := chainid.FromString(item.symbol)
		if nil != err {
			t.Fatalf("%d: FromString error: %s", i, err)
		}
		if sym != item.id {
			t.Errorf("%d: FromString(%q): %s  expected: %s", i, item.symbol, sym, item.id)
		}
		hexForm, err := chainid.FromString(item.id.String())
		if nil != err {
			t.Fatalf("%d: FromString(hex) error: %s", i, err)
		}
		if hexForm != item.id {
			t.Errorf("%d: FromString(%q) mismatch", i, item.id.String())
		}
	}
}

func TestFamily(t *testing.T) {

	testData := []struct {
		id       chainid.ChainID
		expected chainid.Family
	}{
		{chainid.EthereumMainnet, chainid.FamilyEVM},
		{chainid.BscMainnet, chainid.FamilyEVM},
		{chainid.BitcoinMainnet, chainid.FamilyUTXO},
		{chainid.LitecoinMainnet, chainid.FamilyUTXO},
		{chainid.EosMainnet, chainid.FamilyEOS},
		{chainid.AlgorandMainnet, chainid.FamilyAlgorand},
		{chainid.InterimChain, chainid.FamilyInterim},
	}

	for i, item := range testData {
		if item.id.Family() != item.expected {
			t.Errorf("%d: family: %d  expected: %d", i, item.id.Family(), item.expected)
		}
	}
}

func TestRejectUnknown(t *testing.T) {
	_, err := chainid.FromString("dogecoin")
	if nil == err {
		t.Error("unknown chain unexpectedly accepted")
	}
	_, err = chainid.FromBytes([]byte{0x01})
	if nil == err {
		t.Error("short wire form unexpectedly accepted")
	}
}
