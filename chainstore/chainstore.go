// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainstore - the persisted small chain of one light client
//
// holds the anchor block, the linker hash, every stored block between
// anchor and tip and the named pointers latest, canon, anchor and
// tail; all reads and writes go through the storage facade so one
// engine transaction covers a whole submission
package chainstore

import (
	"encoding/binary"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/blockrecord"
	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/storage"
)

// named pointers
const (
	Anchor = "anchor"
	Latest = "latest"
	Canon  = "canon"
	Tail   = "tail"
)

const (
	cacheExpiry  = 2 * time.Minute
	cacheCleanup = 5 * time.Minute
)

// Store - chain state handle bound to one chain id
type Store struct {
	access  storage.Access
	id      chainid.ChainID
	prefix  string
	records *cache.Cache
}

// New - bind a store to a chain id
func New(access storage.Access, id chainid.ChainID) *Store {
	return &Store{
		access:  access,
		id:      id,
		prefix:  "chain/" + id.String()[2:] + "/",
		records: cache.New(cacheExpiry, cacheCleanup),
	}
}

// ID - the bound chain id
func (s *Store) ID() chainid.ChainID {
	return s.id
}

func (s *Store) key(parts ...string) []byte {
	k := s.prefix
	for _, p := range parts {
		k += p
	}
	return []byte(k)
}

// ResetCache - drop the unpacked record cache
//
// must be called when a transaction aborts so phantom records from
// the discarded batch cannot be observed later
func (s *Store) ResetCache() {
	s.records.Flush()
}

// IsInitialised - an anchor pointer marks a completed initialisation
func (s *Store) IsInitialised() bool {
	return s.access.Has(s.key(Anchor))
}

// Pointer - read a named pointer
func (s *Store) Pointer(name string) (blockdigest.Digest, error) {
	var digest blockdigest.Digest
	buffer, err := s.access.Get(s.key(name))
	if nil != err {
		return digest, err
	}
	err = blockdigest.DigestFromBytes(&digest, buffer)
	return digest, err
}

// PutPointer - write a named pointer
func (s *Store) PutPointer(name string, digest blockdigest.Digest) {
	s.access.Put(s.key(name), digest[:], storage.SensitivityNone)
}

// LinkerHash - the current linker hash
func (s *Store) LinkerHash() (blockdigest.Digest, error) {
	var digest blockdigest.Digest
	buffer, err := s.access.Get(s.key("linker_hash"))
	if fault.NotFound == err {
		return digest, fault.LinkerHashMissing
	}
	if nil != err {
		return digest, err
	}
	err = blockdigest.DigestFromBytes(&digest, buffer)
	return digest, err
}

// PutLinkerHash - update the linker hash
func (s *Store) PutLinkerHash(digest blockdigest.Digest) {
	s.access.Put(s.key("linker_hash"), digest[:], storage.SensitivityNone)
}

// GetBlock - fetch and unpack a stored block
func (s *Store) GetBlock(hash blockdigest.Digest) (*blockrecord.Record, error) {
	if cached, found := s.records.Get(hash.String()); found {
		return cached.(*blockrecord.Record), nil
	}

	buffer, err := s.access.Get(s.key("block/", hash.String()))
	if nil != err {
		return nil, err
	}
	record, err := blockrecord.Unpack(buffer)
	if nil != err {
		return nil, err
	}
	s.records.Set(hash.String(), record, cacheExpiry)
	return record, nil
}

// HasBlock - check for a stored block
func (s *Store) HasBlock(hash blockdigest.Digest) bool {
	if _, found := s.records.Get(hash.String()); found {
		return true
	}
	return s.access.Has(s.key("block/", hash.String()))
}

// PutBlock - pack and store a block, refreshing the children index
func (s *Store) PutBlock(record *blockrecord.Record) {
	s.access.Put(s.key("block/", record.Hash.String()), record.Pack(), storage.SensitivityNone)
	s.putChildren(record.Hash, record.Children)
	s.records.Set(record.Hash.String(), record, cacheExpiry)
}

// DeleteBlock - remove a stored block and its children index
func (s *Store) DeleteBlock(hash blockdigest.Digest) {
	s.access.Delete(s.key("block/", hash.String()))
	s.access.Delete(s.key("children/", hash.String()))
	s.records.Delete(hash.String())
}

// children index: hash ordered concatenation mirroring the record's
// own child set, kept so re-org walks need not unpack whole records
func (s *Store) putChildren(hash blockdigest.Digest, children []blockdigest.Digest) {
	if 0 == len(children) {
		s.access.Delete(s.key("children/", hash.String()))
		return
	}
	buffer := make([]byte, 0, len(children)*blockdigest.Length)
	for _, child := range children {
		buffer = append(buffer, child[:]...)
	}
	s.access.Put(s.key("children/", hash.String()), buffer, storage.SensitivityNone)
}

// Children - the stored child set of a block hash
func (s *Store) Children(hash blockdigest.Digest) ([]blockdigest.Digest, error) {
	buffer, err := s.access.Get(s.key("children/", hash.String()))
	if fault.NotFound == err {
		return nil, nil
	}
	if nil != err {
		return nil, err
	}
	if 0 != len(buffer)%blockdigest.Length {
		return nil, fault.InvalidStructure
	}
	children := make([]blockdigest.Digest, len(buffer)/blockdigest.Length)
	for i := range children {
		copy(children[i][:], buffer[i*blockdigest.Length:])
	}
	return children, nil
}

// SigningNonce - next partner-chain signing nonce
func (s *Store) SigningNonce() uint64 {
	buffer, err := s.access.Get(s.key("tx_nonce"))
	if nil != err || len(buffer) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(buffer)
}

// PutSigningNonce - persist the next partner-chain signing nonce
func (s *Store) PutSigningNonce(nonce uint64) {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, nonce)
	s.access.Put(s.key("tx_nonce"), buffer, storage.SensitivityNone)
}

// AncestorAtDepth - walk parents from a block
//
// depth zero is the block itself; fault.NotFound when the walk runs
// off the retained chain
func (s *Store) AncestorAtDepth(from blockdigest.Digest, depth uint64) (*blockrecord.Record, error) {
	record, err := s.GetBlock(from)
	if nil != err {
		return nil, err
	}
	for i := uint64(0); i < depth; i += 1 {
		record, err = s.GetBlock(record.Parent)
		if nil != err {
			return nil, err
		}
	}
	return record, nil
}
