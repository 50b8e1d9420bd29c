// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ethereum

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/peg"
	"github.com/crossmark-inc/pegcored/signer"
)

// mint(address recipient, uint256 amount, bytes metadata)
var mintSelector = crypto.Keccak256([]byte("mint(address,uint256,bytes)"))[:4]

// numeric EIP-155 chain ids for the supported EVM networks
func eip155ChainID(id chainid.ChainID) *big.Int {
	switch id {
	case chainid.EthereumMainnet:
		return big.NewInt(1)
	case chainid.EthereumRopsten:
		return big.NewInt(3)
	case chainid.EthereumRinkeby:
		return big.NewInt(4)
	case chainid.EthereumGoerli:
		return big.NewInt(5)
	case chainid.EthereumSepolia:
		return big.NewInt(11155111)
	case chainid.BscMainnet:
		return big.NewInt(56)
	case chainid.XDaiMainnet:
		return big.NewInt(100)
	case chainid.PolygonMainnet:
		return big.NewInt(137)
	case chainid.FantomMainnet:
		return big.NewInt(250)
	case chainid.ArbitrumMainnet:
		return big.NewInt(42161)
	default:
		return big.NewInt(1)
	}
}

// TxBuilder - materialises peg events into signed EVM transactions
//
// the builder targets one router or vault contract on the partner
// chain; signing is delegated to the injected signer which must
// return a 65 byte recoverable signature over the transaction digest
type TxBuilder struct {
	destination chainid.ChainID
	contract    ethcommon.Address
	gasLimit    uint64
	gasPrice    *big.Int
	ethSigner   types.Signer
	host        signer.Signer
}

// NewTxBuilder - bind a builder to the partner chain contract
func NewTxBuilder(destination chainid.ChainID, contract string, gasLimit uint64, gasPrice *big.Int, host signer.Signer) (*TxBuilder, error) {
	if !ethcommon.IsHexAddress(contract) {
		return nil, fault.CannotDecodeAddress
	}
	return &TxBuilder{
		destination: destination,
		contract:    ethcommon.HexToAddress(contract),
		gasLimit:    gasLimit,
		gasPrice:    new(big.Int).Set(gasPrice),
		ethSigner:   types.NewEIP155Signer(eip155ChainID(destination)),
		host:        host,
	}, nil
}

// DestinationID - the partner chain this builder emits for
func (b *TxBuilder) DestinationID() chainid.ChainID {
	return b.destination
}

// Materialise - one signed mint transaction per peg event
func (b *TxBuilder) Materialise(batch *peg.Batch) ([]*peg.SignedTx, error) {
	result := make([]*peg.SignedTx, 0, len(batch.Events))

	nonce := batch.Nonce
	for _, event := range batch.Events {
		if !ethcommon.IsHexAddress(event.Recipient) {
			return nil, fault.CannotDecodeAddress
		}

		data := mintCallData(ethcommon.HexToAddress(event.Recipient), event.Amount, event.Metadata)
		tx := types.NewTransaction(nonce, b.contract, big.NewInt(0), b.gasLimit, b.gasPrice, data)

		digest := b.ethSigner.Hash(tx)
		sig, err := b.host.Sign(digest[:])
		if nil != err {
			return nil, err
		}

		signed, err := tx.WithSignature(b.ethSigner, sig)
		if nil != err {
			return nil, err
		}
		raw, err := rlp.EncodeToBytes(signed)
		if nil != err {
			return nil, err
		}

		result = append(result, &peg.SignedTx{
			ChainID:   b.destination,
			Recipient: event.Recipient,
			Amount:    event.Amount,
			Nonce:     nonce,
			Raw:       raw,
			Signature: sig,
		})
		nonce += 1
	}
	return result, nil
}

// ABI encode the mint call: selector, two value words, then the
// dynamic metadata bytes
func mintCallData(recipient ethcommon.Address, amount *big.Int, metadata []byte) []byte {
	data := make([]byte, 0, 4+5*32+len(metadata))
	data = append(data, mintSelector...)

	word := make([]byte, 32)
	copy(word[12:], recipient.Bytes())
	data = append(data, word...)

	data = append(data, abiWord(amount)...)
	data = append(data, abiWord(big.NewInt(96))...) // metadata offset
	data = append(data, abiWord(big.NewInt(int64(len(metadata))))...)

	data = append(data, metadata...)
	if padding := len(metadata) % 32; 0 != padding {
		data = append(data, make([]byte, 32-padding)...)
	}
	return data
}

func abiWord(value *big.Int) []byte {
	word := make([]byte, 32)
	if nil != value {
		value.FillBytes(word)
	}
	return word
}
