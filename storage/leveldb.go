// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/logger"

	"github.com/crossmark-inc/pegcored/fault"
)

// LevelDBAccess - embedded goleveldb backend of the facade
//
// writes accumulate in a batch mirrored by the pending cache; the
// batch reaches the database only at commit
type LevelDBAccess struct {
	sync.Mutex
	db    *leveldb.DB
	batch *leveldb.Batch
	cache Cache
	inUse bool
}

// NewLevelDBAccess - open the database file and wrap it in the facade
func NewLevelDBAccess(path string) (*LevelDBAccess, error) {
	db, err := leveldb.OpenFile(path, nil)
	if nil != err {
		return nil, err
	}
	return &LevelDBAccess{
		db:    db,
		batch: new(leveldb.Batch),
		cache: newCache(),
	}, nil
}

// Close - release the underlying database
func (d *LevelDBAccess) Close() error {
	return d.db.Close()
}

// Begin - start an atomic group
func (d *LevelDBAccess) Begin() error {
	d.Lock()
	defer d.Unlock()

	if d.inUse {
		return fault.TransactionAlreadyInUse
	}
	d.inUse = true
	return nil
}

// Put - record a pending write
//
// the sensitivity tag is a hint for HSM-backed stores; the embedded
// backend forwards every value to the same database file
func (d *LevelDBAccess) Put(key []byte, value []byte, sensitivity byte) {
	d.Lock()
	defer d.Unlock()

	if !d.inUse {
		logger.Panicf("storage: Put outside transaction for key: %x", key)
	}
	d.cache.Set(dbPut, string(key), value)
	d.batch.Put(key, value)
}

// Delete - record a pending delete
func (d *LevelDBAccess) Delete(key []byte) {
	d.Lock()
	defer d.Unlock()

	if !d.inUse {
		logger.Panicf("storage: Delete outside transaction for key: %x", key)
	}
	d.cache.Set(dbDelete, string(key), []byte{})
	d.batch.Delete(key)
}

// Commit - write the batch and end the group
func (d *LevelDBAccess) Commit() error {
	d.Lock()
	defer d.Unlock()

	if !d.inUse {
		return fault.TransactionNotInUse
	}

	err := d.db.Write(d.batch, nil)
	d.batch.Reset()
	d.cache.Clear()
	d.inUse = false
	if nil != err {
		return err
	}
	return nil
}

// Abort - discard the batch and end the group
func (d *LevelDBAccess) Abort() {
	d.Lock()
	defer d.Unlock()

	d.batch.Reset()
	d.cache.Clear()
	d.inUse = false
}

// Get - read a value, observing pending writes first
func (d *LevelDBAccess) Get(key []byte) ([]byte, error) {
	d.Lock()
	defer d.Unlock()

	value, op, found := d.cache.Get(string(key))
	if found {
		if dbDelete == op {
			return nil, fault.NotFound
		}
		return value, nil
	}

	value, err := d.db.Get(key, nil)
	if leveldb.ErrNotFound == err {
		return nil, fault.NotFound
	}
	if nil != err {
		return nil, err
	}
	return value, nil
}

// Has - check a key, observing pending writes first
func (d *LevelDBAccess) Has(key []byte) bool {
	d.Lock()
	defer d.Unlock()

	_, op, found := d.cache.Get(string(key))
	if found {
		return dbPut == op
	}

	has, err := d.db.Has(key, nil)
	logger.PanicIfError("storage.Has", err)
	return has
}

// InUse - report whether a transaction is open
func (d *LevelDBAccess) InUse() bool {
	d.Lock()
	defer d.Unlock()
	return d.inUse
}
