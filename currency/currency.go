// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package currency - asset class enumeration and address checking
package currency

import (
	"fmt"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/crossmark-inc/pegcored/fault"
)

// Currency - asset class enumeration
type Currency uint64

// possible currency values
const (
	Nothing      Currency = iota // this must be the first value
	Bitcoin      Currency = iota
	Litecoin     Currency = iota
	Ethereum     Currency = iota
	Eos          Currency = iota
	Algorand     Currency = iota
	maximumValue Currency = iota // this must be the last value
	First        Currency = Nothing + 1
	Last         Currency = maximumValue - 1
	Count        int      = int(Last) // count of currencies
)

// internal conversion
func toString(c Currency) ([]byte, error) {
	switch c {
	case Nothing:
		return []byte{}, nil
	case Bitcoin:
		return []byte("BTC"), nil
	case Litecoin:
		return []byte("LTC"), nil
	case Ethereum:
		return []byte("ETH"), nil
	case Eos:
		return []byte("EOS"), nil
	case Algorand:
		return []byte("ALGO"), nil
	default:
		return []byte{}, fault.InvalidCurrency
	}
}

// convert a string to a currency
func fromString(in string) (Currency, error) {
	switch strings.ToLower(in) {
	case "":
		return Nothing, nil
	case "btc", "bitcoin":
		return Bitcoin, nil
	case "ltc", "litecoin":
		return Litecoin, nil
	case "eth", "ethereum":
		return Ethereum, nil
	case "eos":
		return Eos, nil
	case "algo", "algorand":
		return Algorand, nil
	default:
		return Nothing, fault.InvalidCurrency
	}
}

// String - convert a currency to its string symbol
func (currency Currency) String() string {
	s, err := toString(currency)
	if nil != err {
		logger.Panicf("invalid currency enumeration: %d", currency)
	}
	return string(s)
}

// GoString - enum value and symbol, for debugging
func (currency Currency) GoString() string {
	return fmt.Sprintf("<Currency#%d:%q>", currency, currency.String())
}

// Scan - convert a currency string
func (currency *Currency) Scan(state fmt.ScanState, verb rune) error {
	token, err := state.Token(true, func(c rune) bool {
		if c >= '0' && c <= '9' {
			return true
		}
		if c >= 'A' && c <= 'Z' {
			return true
		}
		if c >= 'a' && c <= 'z' {
			return true
		}
		return false
	})
	if nil != err {
		return err
	}
	parsed, err := fromString(string(token))
	if nil != err {
		return err
	}
	*currency = parsed
	return nil
}

// MarshalText - convert a currency to text
func (currency Currency) MarshalText() ([]byte, error) {
	return toString(currency)
}

// UnmarshalText - convert a text to a currency
func (currency *Currency) UnmarshalText(s []byte) error {
	parsed, err := fromString(string(s))
	if nil != err {
		return err
	}
	*currency = parsed
	return nil
}
