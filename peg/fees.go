// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peg

import (
	"math/big"
)

// fee basis points out of this denominator
const BasisPointsDivisor = 10000

// DefaultPegInBasisPoints - standard peg-in fee
const DefaultPegInBasisPoints = 25

// DefaultPegOutBasisPoints - standard peg-out fee
const DefaultPegOutBasisPoints = 25

// DeductFee - split an amount into net and fee by basis points
//
// a zero basis points value (the disable-fees lever) returns the
// amount unchanged
func DeductFee(amount *big.Int, basisPoints uint64) (*big.Int, *big.Int) {
	if 0 == basisPoints || nil == amount {
		return amount, big.NewInt(0)
	}
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(basisPoints))
	fee.Div(fee, big.NewInt(BasisPointsDivisor))
	net := new(big.Int).Sub(amount, fee)
	return net, fee
}
