// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/blockrecord"
	"github.com/crossmark-inc/pegcored/chain"
	"github.com/crossmark-inc/pegcored/chainstore"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/peg"
)

// advancePointers - the confirmation pipeline
//
// after latest moves: re-derive canon, scan it if it was never
// canonised, advance tail and truncate the chain behind it
func (e *Engine) advancePointers(config *chainstore.Config, newLatest *blockrecord.Record) ([]*peg.SignedTx, error) {
	window := config.CanonToTipLength + config.TailLength

	// one walk down the canonical branch refreshes depths and finds
	// the canon and tail candidates
	var canonCandidate, tailCandidate *blockrecord.Record
	node := newLatest
	for depth := uint64(0); ; depth += 1 {
		if node.Depth != depth {
			node.Depth = depth
			e.store.PutBlock(node)
		}
		if depth == config.CanonToTipLength {
			canonCandidate = node
		}
		if depth == window {
			tailCandidate = node
			break
		}
		next, err := e.store.GetBlock(node.Parent)
		if fault.NotFound == err {
			break // chain shorter than the window, pointers alias
		}
		if nil != err {
			return nil, err
		}
		node = next
	}

	var pegTxs []*peg.SignedTx
	if nil != canonCandidate {
		current, err := e.store.Pointer(chainstore.Canon)
		if nil != err {
			return nil, err
		}
		if current != canonCandidate.Hash {
			e.store.PutPointer(chainstore.Canon, canonCandidate.Hash)
			if 0 == canonCandidate.Flags&blockrecord.Canonised {
				pegTxs, err = e.scanCanonBlock(config, canonCandidate)
				if nil != err {
					return nil, err
				}
			}
		}
	}

	if nil != tailCandidate {
		e.store.PutPointer(chainstore.Tail, tailCandidate.Hash)
		if err := e.truncateBehind(tailCandidate); nil != err {
			return nil, err
		}
	}

	return pegTxs, nil
}

// truncateBehind - remove everything on the chain behind the tail
//
// removed blocks fold into the linker hash in increasing height
// order so the retained prefix still proves descent from the anchor;
// the anchor itself is never removed, and its direct child leaves
// silently while the anchor still vouches for it
func (e *Engine) truncateBehind(tail *blockrecord.Record) error {
	anchorHash, err := e.store.Pointer(chainstore.Anchor)
	if nil != err {
		return err
	}

	// collect the doomed chain, nearest first
	doomed := []*blockrecord.Record{}
	node := tail
	for {
		next, err := e.store.GetBlock(node.Parent)
		if fault.NotFound == err {
			break // already truncated up to here
		}
		if nil != err {
			return err
		}
		if next.Hash == anchorHash {
			break
		}
		doomed = append(doomed, next)
		node = next
	}
	if 0 == len(doomed) {
		return nil
	}

	// increasing height order
	keep := tail.Hash
	for i := len(doomed) - 1; i >= 0; i -= 1 {
		record := doomed[i]

		// canonical child above this block, all other descendants
		// are dead siblings destroyed silently
		canonicalChild := keep
		if i > 0 {
			canonicalChild = doomed[i-1].Hash
		}
		for _, child := range record.Children {
			if child != canonicalChild {
				if err := e.deleteSubtree(child); nil != err {
					return err
				}
			}
		}

		if record.Parent != anchorHash {
			if err := e.foldIntoLinker(record.Hash, anchorHash); nil != err {
				return err
			}
		}
		e.log.Debugf("truncating block %s (height %d)", record.Hash, record.Height)
		e.store.DeleteBlock(record.Hash)
	}

	// the tail's provenance now continues through the linker chain
	tail.Flags |= blockrecord.Sealed
	e.store.PutBlock(tail)
	return nil
}

// foldIntoLinker - one linker hash step
//
// linker' = H(linker ‖ removed_hash ‖ anchor_hash) with the family
// seed substituted on the very first fold
func (e *Engine) foldIntoLinker(removed blockdigest.Digest, anchorHash blockdigest.Digest) error {
	linker, err := e.store.LinkerHash()
	if fault.LinkerHashMissing == err {
		linker = e.family.LinkerSeed()
	} else if nil != err {
		return err
	}

	buffer := make([]byte, 0, 3*blockdigest.Length)
	buffer = append(buffer, linker[:]...)
	buffer = append(buffer, removed[:]...)
	buffer = append(buffer, anchorHash[:]...)
	e.store.PutLinkerHash(e.family.LinkerDigest(buffer))
	return nil
}

// deleteSubtree - silently destroy a dead branch
func (e *Engine) deleteSubtree(root blockdigest.Digest) error {
	children, err := e.store.Children(root)
	if nil != err {
		return err
	}
	for _, child := range children {
		if err := e.deleteSubtree(child); nil != err {
			return err
		}
	}
	e.store.DeleteBlock(root)
	return nil
}

// scanCanonBlock - the peg scanner, invoked exactly once per block
//
// after scanning and materialising, marks the block canonised so a
// re-org can never cause a second scan, and drops the scanned body
// from the record
func (e *Engine) scanCanonBlock(config *chainstore.Config, record *blockrecord.Record) ([]*peg.SignedTx, error) {
	block := &chain.Block{
		Hash:      record.Hash,
		Parent:    record.Parent,
		Root:      record.Root,
		Height:    record.Height,
		Timestamp: record.Timestamp,
		Body:      record.Body,
	}

	events, err := e.family.ScanPegEvents(block)
	if nil != err {
		return nil, err
	}

	// bank deposit outputs for later peg-outs
	if extractor, ok := e.family.(chain.UtxoExtractor); ok {
		records, err := extractor.ExtractUtxos(block)
		if nil != err {
			return nil, err
		}
		if err := e.utxos.Add(records); nil != err {
			return nil, err
		}
	}

	for _, event := range events {
		safeAddress := config.SafeAddress
		if "" == safeAddress {
			safeAddress = peg.DefaultSafeAddress(peg.AddressClass(event.DestinationChain))
		}
		if event.DivertToSafeAddress(safeAddress, config.Testnet) {
			e.log.Warnf("peg event diverted to safe address %s", safeAddress)
		}

		basisPoints := config.FeeBasisPoints
		if 0 == basisPoints && !config.DisableFees {
			basisPoints = peg.DefaultPegInBasisPoints
		}
		if config.DisableFees {
			basisPoints = 0
		}
		event.Amount, _ = peg.DeductFee(event.Amount, basisPoints)
	}

	var pegTxs []*peg.SignedTx
	if nil != e.materialiser && len(events) > 0 {
		nonce := e.store.SigningNonce()
		pegTxs, err = e.materialiser.Materialise(&peg.Batch{
			Events: events,
			Nonce:  nonce,
			Utxos:  e.utxos,
		})
		if nil != err {
			return nil, err
		}
		e.store.PutSigningNonce(nonce + uint64(len(pegTxs)))
		e.log.Infof("canon block %s produced %d peg transaction(s)", record.Hash, len(pegTxs))
	}

	record.Flags |= blockrecord.Canonised
	record.Body = nil
	e.store.PutBlock(record)
	return pegTxs, nil
}
