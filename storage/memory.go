// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/crossmark-inc/pegcored/fault"
)

// MemoryAccess - in-memory backend of the facade, for tests
//
// keeps the sensitivity tag of every committed value so tests can
// verify what the engine forwarded
type MemoryAccess struct {
	sync.Mutex
	committed   map[string][]byte
	sensitivity map[string]byte
	pending     map[string]pendingWrite
	inUse       bool
}

type pendingWrite struct {
	op          int
	value       []byte
	sensitivity byte
}

// NewMemoryAccess - create an empty in-memory store
func NewMemoryAccess() *MemoryAccess {
	return &MemoryAccess{
		committed:   make(map[string][]byte),
		sensitivity: make(map[string]byte),
		pending:     make(map[string]pendingWrite),
	}
}

// Begin - start an atomic group
func (m *MemoryAccess) Begin() error {
	m.Lock()
	defer m.Unlock()

	if m.inUse {
		return fault.TransactionAlreadyInUse
	}
	m.inUse = true
	return nil
}

// Put - record a pending write
func (m *MemoryAccess) Put(key []byte, value []byte, sensitivity byte) {
	m.Lock()
	defer m.Unlock()

	if !m.inUse {
		logger.Panicf("storage: Put outside transaction for key: %x", key)
	}
	buffer := make([]byte, len(value))
	copy(buffer, value)
	m.pending[string(key)] = pendingWrite{
		op:          dbPut,
		value:       buffer,
		sensitivity: sensitivity,
	}
}

// Delete - record a pending delete
func (m *MemoryAccess) Delete(key []byte) {
	m.Lock()
	defer m.Unlock()

	if !m.inUse {
		logger.Panicf("storage: Delete outside transaction for key: %x", key)
	}
	m.pending[string(key)] = pendingWrite{op: dbDelete}
}

// Commit - apply pending writes and end the group
func (m *MemoryAccess) Commit() error {
	m.Lock()
	defer m.Unlock()

	if !m.inUse {
		return fault.TransactionNotInUse
	}

	for key, w := range m.pending {
		if dbDelete == w.op {
			delete(m.committed, key)
			delete(m.sensitivity, key)
		} else {
			m.committed[key] = w.value
			m.sensitivity[key] = w.sensitivity
		}
	}
	m.pending = make(map[string]pendingWrite)
	m.inUse = false
	return nil
}

// Abort - discard pending writes and end the group
func (m *MemoryAccess) Abort() {
	m.Lock()
	defer m.Unlock()

	m.pending = make(map[string]pendingWrite)
	m.inUse = false
}

// Get - read a value, observing pending writes first
func (m *MemoryAccess) Get(key []byte) ([]byte, error) {
	m.Lock()
	defer m.Unlock()

	if w, found := m.pending[string(key)]; found {
		if dbDelete == w.op {
			return nil, fault.NotFound
		}
		return w.value, nil
	}

	value, found := m.committed[string(key)]
	if !found {
		return nil, fault.NotFound
	}
	return value, nil
}

// Has - check a key, observing pending writes first
func (m *MemoryAccess) Has(key []byte) bool {
	m.Lock()
	defer m.Unlock()

	if w, found := m.pending[string(key)]; found {
		return dbPut == w.op
	}
	_, found := m.committed[string(key)]
	return found
}

// InUse - report whether a transaction is open
func (m *MemoryAccess) InUse() bool {
	m.Lock()
	defer m.Unlock()
	return m.inUse
}

// Sensitivity - the tag committed with a key, for test assertions
func (m *MemoryAccess) Sensitivity(key []byte) (byte, bool) {
	m.Lock()
	defer m.Unlock()
	s, found := m.sensitivity[string(key)]
	return s, found
}

// Size - number of committed keys, for test assertions
func (m *MemoryAccess) Size() int {
	m.Lock()
	defer m.Unlock()
	return len(m.committed)
}
