// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainid - metadata chain identifiers
//
// a 4 byte wire tag identifying a (chain family, network) pair; the
// values are bit-exact external interface constants and must never be
// renumbered
package chainid

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/crossmark-inc/pegcored/fault"
)

// Length - number of bytes in a wire form chain id
const Length = 4

// ChainID - metadata chain id enumeration
type ChainID uint32

// all assigned chain ids - keep grouped by family
const (
	Nothing ChainID = 0x00000000 // also EthUnknown on the wire

	// EVM family
	EthereumMainnet ChainID = 0x005fe7f9
	EthereumRopsten ChainID = 0x0069c322
	EthereumRinkeby ChainID = 0x00f34368
	EthereumGoerli  ChainID = 0x00b4f6c5
	EthereumSepolia ChainID = 0x0030d6b5
	BscMainnet      ChainID = 0x00e4b170
	XDaiMainnet     ChainID = 0x00f1918e
	PolygonMainnet  ChainID = 0x0075dd4c
	ArbitrumMainnet ChainID = 0x00ce98c4
	FantomMainnet   ChainID = 0x0022af98

	// UTXO family
	BtcUnknown      ChainID = 0x01000000
	BitcoinMainnet  ChainID = 0x01ec97de
	BitcoinTestnet  ChainID = 0x018afeb2
	LitecoinMainnet ChainID = 0x01840435

	// EOS family
	EosUnknown ChainID = 0x02000000
	EosMainnet ChainID = 0x02e7261c

	// Algorand family
	AlgorandMainnet ChainID = 0x03c38e67

	// the internal hub chain
	InterimChain ChainID = 0xffffffff
)

// Family - the chain family of an identifier
type Family int

// chain families
const (
	FamilyNone Family = iota
	FamilyEVM
	FamilyUTXO
	FamilyEOS
	FamilyAlgorand
	FamilyInterim
)

// Family - derive the chain family from the leading byte
func (c ChainID) Family() Family {
	if InterimChain == c {
		return FamilyInterim
	}
	switch byte(c >> 24) {
	case 0x00:
		return FamilyEVM
	case 0x01:
		return FamilyUTXO
	case 0x02:
		return FamilyEOS
	case 0x03:
		return FamilyAlgorand
	default:
		return FamilyNone
	}
}

// Bytes - the 4 byte big endian wire form
func (c ChainID) Bytes() []byte {
	buffer := make([]byte, Length)
	binary.BigEndian.PutUint32(buffer, uint32(c))
	return buffer
}

// FromBytes - decode a wire form chain id
func FromBytes(buffer []byte) (ChainID, error) {
	if Length != len(buffer) {
		return Nothing, fault.InvalidChainID
	}
	return ChainID(binary.BigEndian.Uint32(buffer)), nil
}

// String - hex wire form for use by the fmt package (for %s)
func (c ChainID) String() string {
	return "0x" + hex.EncodeToString(c.Bytes())
}

// GoString - enum and hex form, for debugging
func (c ChainID) GoString() string {
	return fmt.Sprintf("<ChainID:%s>", c.String())
}

// FromString - convert a symbolic or hex chain id string
func FromString(in string) (ChainID, error) {
	switch strings.ToLower(in) {
	case "eth", "ethereummainnet", "0x005fe7f9":
		return EthereumMainnet, nil
	case "ropsten", "ethereumropsten", "0x0069c322":
		return EthereumRopsten, nil
	case "rinkeby", "ethereumrinkeby", "0x00f34368":
		return EthereumRinkeby, nil
	case "goerli", "ethereumgoerli", "0x00b4f6c5":
		return EthereumGoerli, nil
	case "sepolia", "ethereumsepolia", "0x0030d6b5":
		return EthereumSepolia, nil
	case "bsc", "bscmainnet", "0x00e4b170":
		return BscMainnet, nil
	case "xdai", "gnosis", "xdaimainnet", "0x00f1918e":
		return XDaiMainnet, nil
	case "polygon", "polygonmainnet", "0x0075dd4c":
		return PolygonMainnet, nil
	case "arbitrum", "arbitrummainnet", "0x00ce98c4":
		return ArbitrumMainnet, nil
	case "fantom", "fantommainnet", "0x0022af98":
		return FantomMainnet, nil
	case "btcunknown", "0x01000000":
		return BtcUnknown, nil
	case "btc", "bitcoinmainnet", "0x01ec97de":
		return BitcoinMainnet, nil
	case "bitcointestnet", "0x018afeb2":
		return BitcoinTestnet, nil
	case "ltc", "litecoinmainnet", "0x01840435":
		return LitecoinMainnet, nil
	case "eosunknown", "0x02000000":
		return EosUnknown, nil
	case "eos", "eosmainnet", "0x02e7261c":
		return EosMainnet, nil
	case "algo", "algorandmainnet", "0x03c38e67":
		return AlgorandMainnet, nil
	case "interim", "interimchain", "0xffffffff":
		return InterimChain, nil
	case "nothing", "ethunknown", "0x00000000":
		return Nothing, nil
	default:
		return Nothing, fault.InvalidChainID
	}
}

// MarshalText - convert chain id to hex wire text
func (c ChainID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText - convert hex or symbolic text into a chain id
func (c *ChainID) UnmarshalText(s []byte) error {
	id, err := FromString(string(s))
	if nil != err {
		return err
	}
	*c = id
	return nil
}
