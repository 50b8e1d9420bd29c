// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockrecord - binary form of a stored block
//
// a light block plus chain bookkeeping: depth from the current tip,
// the ordered child set, cumulative chain work and status flags;
// packing is exact so records round-trip byte identically
package blockrecord

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"sort"

	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/util"
)

// Flags - record status bits
type Flags byte

// flag bits
const (
	// Sealed - the blocks behind this one were truncated from the
	// store; each removed block other than the anchor's own child was
	// folded into the linker hash, so provenance continues through the
	// linker chain
	Sealed Flags = 0x01

	// Canonised - this block has been scanned for peg events and
	// must never be scanned again
	Canonised Flags = 0x02
)

// byte sizes for the fixed fields
const (
	heightSize    = 8
	timestampSize = 8
	depthSize     = 8
	flagsSize     = 1
	hashSize      = blockdigest.Length
	parentSize    = blockdigest.Length
	rootSize      = blockdigest.Length
)

// offsets of the fixed fields
const (
	heightOffset    = 0
	timestampOffset = heightOffset + heightSize
	depthOffset     = timestampOffset + timestampSize
	flagsOffset     = depthOffset + depthSize
	hashOffset      = flagsOffset + flagsSize
	parentOffset    = hashOffset + hashSize
	rootOffset      = parentOffset + parentSize

	fixedSize = rootOffset + rootSize // end of the fixed part
)

// Record - the unpacked stored block
type Record struct {
	Height    uint64
	Timestamp uint64
	Depth     uint64
	Flags     Flags
	Hash      blockdigest.Digest
	Parent    blockdigest.Digest
	Root      blockdigest.Digest
	Work      *big.Int
	Children  []blockdigest.Digest
	Body      []byte
}

// AddChild - insert a child hash keeping the set canonicalised
//
// the set is ordered by ascending hash bytes; duplicates are ignored
func (record *Record) AddChild(child blockdigest.Digest) {
	for _, c := range record.Children {
		if c == child {
			return
		}
	}
	record.Children = append(record.Children, child)
	sort.Slice(record.Children, func(i, j int) bool {
		return bytes.Compare(record.Children[i][:], record.Children[j][:]) < 0
	})
}

// RemoveChild - drop a child hash if present
func (record *Record) RemoveChild(child blockdigest.Digest) {
	for i, c := range record.Children {
		if c == child {
			record.Children = append(record.Children[:i], record.Children[i+1:]...)
			return
		}
	}
}

// Pack - serialise a record
//
// layout: fixed fields, varint prefixed work bytes (big endian),
// varint child count and hashes, varint prefixed body
func (record *Record) Pack() []byte {

	work := []byte{}
	if nil != record.Work {
		work = record.Work.Bytes()
	}

	buffer := make([]byte, fixedSize, fixedSize+len(work)+len(record.Children)*hashSize+len(record.Body)+3*util.Varint64MaximumBytes)

	binary.LittleEndian.PutUint64(buffer[heightOffset:], record.Height)
	binary.LittleEndian.PutUint64(buffer[timestampOffset:], record.Timestamp)
	binary.LittleEndian.PutUint64(buffer[depthOffset:], record.Depth)
	buffer[flagsOffset] = byte(record.Flags)
	copy(buffer[hashOffset:], record.Hash[:])
	copy(buffer[parentOffset:], record.Parent[:])
	copy(buffer[rootOffset:], record.Root[:])

	buffer = append(buffer, util.ToVarint64(uint64(len(work)))...)
	buffer = append(buffer, work...)

	buffer = append(buffer, util.ToVarint64(uint64(len(record.Children)))...)
	for _, child := range record.Children {
		buffer = append(buffer, child[:]...)
	}

	buffer = append(buffer, util.ToVarint64(uint64(len(record.Body)))...)
	buffer = append(buffer, record.Body...)

	return buffer
}

// Unpack - deserialise a record
func Unpack(buffer []byte) (*Record, error) {
	if len(buffer) < fixedSize {
		return nil, fault.InvalidStructure
	}

	record := &Record{
		Height:    binary.LittleEndian.Uint64(buffer[heightOffset:]),
		Timestamp: binary.LittleEndian.Uint64(buffer[timestampOffset:]),
		Depth:     binary.LittleEndian.Uint64(buffer[depthOffset:]),
		Flags:     Flags(buffer[flagsOffset]),
	}
	copy(record.Hash[:], buffer[hashOffset:])
	copy(record.Parent[:], buffer[parentOffset:])
	copy(record.Root[:], buffer[rootOffset:])
	buffer = buffer[fixedSize:]

	length, n := util.FromVarint64(buffer)
	if 0 == n || uint64(len(buffer)-n) < length {
		return nil, fault.InvalidStructure
	}
	record.Work = new(big.Int).SetBytes(buffer[n : n+int(length)])
	buffer = buffer[n+int(length):]

	count, n := util.FromVarint64(buffer)
	if 0 == n || count > uint64(len(buffer)) || uint64(len(buffer)-n) < count*hashSize {
		return nil, fault.InvalidStructure
	}
	buffer = buffer[n:]
	if count > 0 {
		record.Children = make([]blockdigest.Digest, count)
		for i := uint64(0); i < count; i += 1 {
			copy(record.Children[i][:], buffer[:hashSize])
			buffer = buffer[hashSize:]
		}
	}

	length, n = util.FromVarint64(buffer)
	if 0 == n || uint64(len(buffer)-n) < length {
		return nil, fault.InvalidStructure
	}
	if length > 0 {
		record.Body = make([]byte, length)
		copy(record.Body, buffer[n:n+int(length)])
	}
	buffer = buffer[n+int(length):]

	if 0 != len(buffer) {
		return nil, fault.InvalidStructure
	}
	return record, nil
}
