// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"bytes"
	"encoding/json"
	"math/big"

	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/blockrecord"
	"github.com/crossmark-inc/pegcored/chain"
	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/chainstore"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/peg"
)

// Result - outcome of one accepted submission
type Result struct {
	ChainID       chainid.ChainID    `json:"chain_id"`
	BlockHash     blockdigest.Digest `json:"block_hash"`
	LatestHeight  uint64             `json:"latest_block_height"`
	CanonHeight   uint64             `json:"canon_block_height"`
	TailHeight    uint64             `json:"tail_block_height"`
	AlreadyStored bool               `json:"already_stored,omitempty"`
	PegTxs        []*peg.SignedTx    `json:"peg_transactions"`
}

// SubmitBlock - apply one block, or a JSON array of blocks in order
//
// each element runs in its own storage transaction; a failure aborts
// that element and stops the batch
func (e *Engine) SubmitBlock(data []byte) ([]*Result, error) {
	trimmed := bytes.TrimSpace(data)
	if 0 == len(trimmed) {
		return nil, fault.MalformedSubmission
	}

	submissions := []json.RawMessage{}
	if '[' == trimmed[0] {
		if err := json.Unmarshal(trimmed, &submissions); nil != err {
			return nil, fault.MalformedSubmission
		}
	} else {
		submissions = append(submissions, json.RawMessage(trimmed))
	}

	results := make([]*Result, 0, len(submissions))
	for _, submission := range submissions {
		var result *Result
		err := e.inTransaction(func() error {
			r, err := e.submit(submission)
			result = r
			return err
		})
		if nil != err {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// one block through the full pipeline: validator, fork manager,
// store edit, confirmation pipeline, peg scanner
func (e *Engine) submit(data []byte) (*Result, error) {
	config, err := e.store.GetConfig()
	if nil != err {
		return nil, err
	}

	block, err := e.family.ParseBlock(data, false)
	if nil != err {
		return nil, err
	}

	// resubmission is a no-op and must not re-emit peg transactions
	if e.store.HasBlock(block.Hash) {
		e.log.Debugf("block %s already stored", block.Hash)
		return e.currentResult(config, block.Hash, true, nil)
	}

	latestHash, err := e.store.Pointer(chainstore.Latest)
	if nil != err {
		return nil, err
	}
	latest, err := e.store.GetBlock(latestHash)
	if nil != err {
		return nil, err
	}

	parent, err := e.store.GetBlock(block.Parent)
	if fault.NotFound == err {
		tail, tailErr := e.tailRecord()
		if nil != tailErr {
			return nil, tailErr
		}
		if block.Height <= tail.Height {
			return nil, fault.AncientBlock
		}
		return nil, fault.OrphanBlock
	}
	if nil != err {
		return nil, err
	}

	if !e.nonValidating {
		parentBlock := &chain.Block{
			Hash:      parent.Hash,
			Parent:    parent.Parent,
			Root:      parent.Root,
			Height:    parent.Height,
			Timestamp: parent.Timestamp,
		}
		if err := e.family.Validate(block, parentBlock); nil != err {
			return nil, err
		}
	}

	window := config.CanonToTipLength + config.TailLength

	// bound the re-org depth before touching the topology
	if block.Parent != latest.Hash {
		if err := e.checkReorgDepth(parent, latest, window); nil != err {
			return nil, err
		}
	}

	// store the block and link it under its parent
	record := newRecord(block, cumulativeWork(parent, block))
	e.store.PutBlock(record)
	parent.AddChild(block.Hash)
	e.store.PutBlock(parent)

	newLatest, err := e.selectHead(record, latest)
	if nil != err {
		return nil, err
	}

	var pegTxs []*peg.SignedTx
	if newLatest.Hash == record.Hash {
		e.store.PutPointer(chainstore.Latest, record.Hash)
		pegTxs, err = e.advancePointers(config, record)
		if nil != err {
			return nil, err
		}
	}

	return e.currentResult(config, block.Hash, false, pegTxs)
}

func newRecord(block *chain.Block, work *big.Int) *blockrecord.Record {
	return &blockrecord.Record{
		Height:    block.Height,
		Timestamp: block.Timestamp,
		Hash:      block.Hash,
		Parent:    block.Parent,
		Root:      block.Root,
		Work:      work,
		Body:      block.Body,
	}
}

func cumulativeWork(parent *blockrecord.Record, block *chain.Block) *big.Int {
	work := big.NewInt(1)
	if nil != block.Work {
		work = new(big.Int).Set(block.Work)
	}
	if nil != parent.Work {
		work.Add(work, parent.Work)
	}
	return work
}

func (e *Engine) tailRecord() (*blockrecord.Record, error) {
	tailHash, err := e.store.Pointer(chainstore.Tail)
	if nil != err {
		return nil, err
	}
	return e.store.GetBlock(tailHash)
}

// the submitted block's common ancestor with latest must lie within
// the retention window
func (e *Engine) checkReorgDepth(parent *blockrecord.Record, latest *blockrecord.Record, window uint64) error {

	// ancestors of latest back to the window boundary
	canonical := make(map[blockdigest.Digest]uint64)
	node := latest
	for depth := uint64(0); ; depth += 1 {
		canonical[node.Hash] = depth
		if depth >= window {
			break
		}
		next, err := e.store.GetBlock(node.Parent)
		if fault.NotFound == err {
			break
		}
		if nil != err {
			return err
		}
		node = next
	}

	// walk up from the new block's parent to the first shared hash
	node = parent
	for {
		if depth, ok := canonical[node.Hash]; ok {
			if depth > window {
				return fault.ReorgTooDeep
			}
			return nil
		}
		next, err := e.store.GetBlock(node.Parent)
		if fault.NotFound == err {
			// no common ancestor within the retained topology
			return fault.ReorgTooDeep
		}
		if nil != err {
			return err
		}
		node = next
	}
}

// fork choice: extending the canonical tip always wins; a sibling
// branch must carry strictly greater accumulated work, first seen
// wins ties
func (e *Engine) selectHead(candidate *blockrecord.Record, latest *blockrecord.Record) (*blockrecord.Record, error) {
	if candidate.Parent == latest.Hash {
		return candidate, nil
	}
	if candidate.Work.Cmp(latest.Work) > 0 {
		e.log.Warnf("re-org: %s (height %d) displaces %s (height %d)",
			candidate.Hash, candidate.Height, latest.Hash, latest.Height)
		if err := e.discardBranch(latest, candidate); nil != err {
			return nil, err
		}
		return candidate, nil
	}
	e.log.Debugf("sibling %s stored, head unchanged", candidate.Hash)
	return latest, nil
}

// delete the losing branch back to, but excluding, the fork point
// with the winning branch
func (e *Engine) discardBranch(loser *blockrecord.Record, winner *blockrecord.Record) error {

	winning := make(map[blockdigest.Digest]bool)
	node := winner
	for {
		winning[node.Hash] = true
		next, err := e.store.GetBlock(node.Parent)
		if fault.NotFound == err {
			break
		}
		if nil != err {
			return err
		}
		node = next
	}

	node = loser
	for !winning[node.Hash] {
		parent, err := e.store.GetBlock(node.Parent)
		if nil != err {
			return err
		}
		e.log.Debugf("discarding re-orged block %s (height %d)", node.Hash, node.Height)
		e.store.DeleteBlock(node.Hash)
		if winning[parent.Hash] {
			parent.RemoveChild(node.Hash)
			e.store.PutBlock(parent)
			break
		}
		node = parent
	}
	return nil
}

func (e *Engine) currentResult(config *chainstore.Config, hash blockdigest.Digest, alreadyStored bool, pegTxs []*peg.SignedTx) (*Result, error) {
	heights := [3]uint64{}
	for i, name := range []string{chainstore.Latest, chainstore.Canon, chainstore.Tail} {
		pointer, err := e.store.Pointer(name)
		if nil != err {
			return nil, err
		}
		record, err := e.store.GetBlock(pointer)
		if nil != err {
			return nil, err
		}
		heights[i] = record.Height
	}
	if nil == pegTxs {
		pegTxs = []*peg.SignedTx{}
	}
	return &Result{
		ChainID:       e.family.ID(),
		BlockHash:     hash,
		LatestHeight:  heights[0],
		CanonHeight:   heights[1],
		TailHeight:    heights[2],
		AlreadyStored: alreadyStored,
		PegTxs:        pegTxs,
	}, nil
}
