// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/storage"
)

func TestTransactionVisibility(t *testing.T) {
	access := storage.NewMemoryAccess()

	err := access.Begin()
	assert.NoError(t, err, "begin failed")

	access.Put([]byte("one"), []byte("alpha"), storage.SensitivityNone)

	// pending write must be observable inside the transaction
	value, err := access.Get([]byte("one"))
	assert.NoError(t, err, "get failed")
	assert.Equal(t, []byte("alpha"), value, "pending write not visible")
	assert.True(t, access.Has([]byte("one")), "pending write not visible to Has")

	err = access.Commit()
	assert.NoError(t, err, "commit failed")

	value, err = access.Get([]byte("one"))
	assert.NoError(t, err, "get after commit failed")
	assert.Equal(t, []byte("alpha"), value, "committed value lost")
}

func TestPendingDeleteShadowsCommitted(t *testing.T) {
	access := storage.NewMemoryAccess()

	assert.NoError(t, access.Begin(), "begin failed")
	access.Put([]byte("one"), []byte("alpha"), storage.SensitivityNone)
	assert.NoError(t, access.Commit(), "commit failed")

	assert.NoError(t, access.Begin(), "begin failed")
	access.Delete([]byte("one"))

	_, err := access.Get([]byte("one"))
	assert.Equal(t, fault.NotFound, err, "pending delete not observed")
	assert.False(t, access.Has([]byte("one")), "pending delete not observed by Has")

	access.Abort()

	// abort restores the committed value
	value, err := access.Get([]byte("one"))
	assert.NoError(t, err, "get after abort failed")
	assert.Equal(t, []byte("alpha"), value, "abort lost committed value")
}

func TestAbortDiscardsWrites(t *testing.T) {
	access := storage.NewMemoryAccess()

	assert.NoError(t, access.Begin(), "begin failed")
	access.Put([]byte("two"), []byte("beta"), storage.SensitivityNone)
	access.Abort()

	_, err := access.Get([]byte("two"))
	assert.Equal(t, fault.NotFound, err, "aborted write survived")
	assert.Equal(t, 0, access.Size(), "aborted write committed")
}

func TestNestedTransactionRejected(t *testing.T) {
	access := storage.NewMemoryAccess()

	assert.NoError(t, access.Begin(), "begin failed")
	err := access.Begin()
	assert.Equal(t, fault.TransactionAlreadyInUse, err, "nested begin accepted")
	access.Abort()

	err = access.Commit()
	assert.Equal(t, fault.TransactionNotInUse, err, "commit without begin accepted")
}

func TestSensitivityForwarded(t *testing.T) {
	access := storage.NewMemoryAccess()

	assert.NoError(t, access.Begin(), "begin failed")
	access.Put([]byte("secret"), []byte{0x01}, storage.SensitivityMaximum)
	access.Put([]byte("public"), []byte{0x02}, storage.SensitivityNone)
	assert.NoError(t, access.Commit(), "commit failed")

	s, found := access.Sensitivity([]byte("secret"))
	assert.True(t, found, "sensitivity lost")
	assert.Equal(t, storage.SensitivityMaximum, s, "sensitivity tag changed")

	s, found = access.Sensitivity([]byte("public"))
	assert.True(t, found, "sensitivity lost")
	assert.Equal(t, storage.SensitivityNone, s, "sensitivity tag changed")
}

func TestGetMissing(t *testing.T) {
	access := storage.NewMemoryAccess()
	_, err := access.Get([]byte("absent"))
	assert.Equal(t, fault.NotFound, err, "missing key did not return NotFound")
}
