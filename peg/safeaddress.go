// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peg

import (
	"github.com/crossmark-inc/pegcored/currency"
)

// default fallback recipients per asset class
//
// a chain configuration normally carries its own safe address; these
// apply when the configuration omits one
const (
	defaultSafeBitcoin  = "136CTERaocm8dLbEtzCaFtJJX9jfFhnChK"
	defaultSafeEthereum = "0x71A440EE9Fa7F99FB9a697e96eC7839B8A1643B8"
	defaultSafeEos      = "safu.pegcore"
	defaultSafeAlgorand = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAY5HFKQ"
)

// DefaultSafeAddress - the built-in fallback recipient for a class
func DefaultSafeAddress(class currency.Currency) string {
	switch class {
	case currency.Bitcoin, currency.Litecoin:
		return defaultSafeBitcoin
	case currency.Ethereum:
		return defaultSafeEthereum
	case currency.Eos:
		return defaultSafeEos
	case currency.Algorand:
		return defaultSafeAlgorand
	default:
		return ""
	}
}
