// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package merkle - binary merkle tree over block digests
//
// pairing rule is the UTXO chain rule: concatenate the two child
// digests and apply the family pair digest, duplicating the final
// node of an odd level
package merkle

import (
	"github.com/crossmark-inc/pegcored/blockdigest"
)

// PairDigest - hash the concatenation of two tree nodes
type PairDigest func([]byte) blockdigest.Digest

// FullMerkleTree - compute the full merkle tree from a set of transaction ids
//
// structure is:
//   1. N * transaction digests
//   2. level 1..m digests
//   3. merkle root digest
func FullMerkleTree(txIds []blockdigest.Digest, pair PairDigest) []blockdigest.Digest {

	idCount := len(txIds)
	if 0 == idCount {
		return nil
	}

	// compute length of ids + all tree levels including root
	totalLength := 1 // all ids + space for the final root
	for n := idCount; n > 1; n = (n + 1) / 2 {
		totalLength += n
	}

	// add initial ids
	tree := make([]blockdigest.Digest, totalLength)
	copy(tree[:], txIds)

	n := idCount
	j := 0
	for workLength := idCount; workLength > 1; workLength = (workLength + 1) / 2 {
		for i := 0; i < workLength; i += 2 {
			k := j + 1
			if i+1 == workLength {
				k = j // compensate for odd number
			}
			var buffer [2 * blockdigest.Length]byte
			copy(buffer[:], tree[j][:])
			copy(buffer[blockdigest.Length:], tree[k][:])
			tree[n] = pair(buffer[:])
			n += 1
			j = k + 1
		}
	}
	return tree
}

// Root - compute just the merkle root from a set of transaction ids
//
// a single id is its own root
func Root(txIds []blockdigest.Digest, pair PairDigest) blockdigest.Digest {
	tree := FullMerkleTree(txIds, pair)
	if nil == tree {
		return blockdigest.Digest{}
	}
	return tree[len(tree)-1]
}
