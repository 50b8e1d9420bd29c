// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package debugsigner_test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"

	"github.com/crossmark-inc/pegcored/debugsigner"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/storage"
)

type testSigner struct {
	key     *ecdsa.PrivateKey
	address string
}

func newTestSigner(t *testing.T) *testSigner {
	key, err := crypto.GenerateKey()
	assert.NoError(t, err, "key generation failed")
	return &testSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}
}

func (s *testSigner) sign(t *testing.T, action string, payload []byte, nonce uint64) []byte {
	hash := debugsigner.CommandHash(action, payload, nonce)
	signature, err := crypto.Sign(hash, s.key)
	assert.NoError(t, err, "signing failed")
	return signature
}

func setup(t *testing.T) (*debugsigner.Roster, *testSigner) {
	access := storage.NewMemoryAccess()
	assert.NoError(t, access.Begin(), "begin failed")

	roster := debugsigner.NewRoster(access)
	signer := newTestSigner(t)
	assert.NoError(t, roster.InstallFirst(signer.address), "bootstrap failed")
	return roster, signer
}

func TestInstallFirstOnlyOnce(t *testing.T) {
	roster, _ := setup(t)

	other := newTestSigner(t)
	err := roster.InstallFirst(other.address)
	assert.Equal(t, fault.Unauthorised, err, "second bootstrap accepted")

	all, err := roster.All()
	assert.NoError(t, err, "roster read failed")
	assert.Len(t, all, 1, "roster size wrong")
}

func TestGatedAdd(t *testing.T) {
	roster, signer := setup(t)
	second := newTestSigner(t)

	payload := []byte(normalised(second.address))
	signature := signer.sign(t, "add-debug-signer", payload, 0)

	err := roster.Add(second.address, signature)
	assert.NoError(t, err, "gated add failed")

	all, err := roster.All()
	assert.NoError(t, err, "roster read failed")
	assert.Len(t, all, 2, "roster size wrong")
	// insertion order is preserved
	assert.Equal(t, normalised(signer.address), all[0].Address, "order damaged")
	assert.Equal(t, normalised(second.address), all[1].Address, "order damaged")
	// authorising signatory burnt its nonce
	assert.Equal(t, uint64(1), all[0].Nonce, "nonce not incremented")
	assert.Equal(t, uint64(0), all[1].Nonce, "new signatory nonce not zero")
}

func TestUnauthorisedAddLeavesStateUnchanged(t *testing.T) {
	roster, _ := setup(t)
	second := newTestSigner(t)
	intruder := newTestSigner(t)

	payload := []byte(normalised(second.address))
	signature := intruder.sign(t, "add-debug-signer", payload, 0)

	err := roster.Add(second.address, signature)
	assert.Equal(t, fault.Unauthorised, err, "intruder signature accepted")

	all, err := roster.All()
	assert.NoError(t, err, "roster read failed")
	assert.Len(t, all, 1, "roster changed by rejected request")
	assert.Equal(t, uint64(0), all[0].Nonce, "nonce changed by rejected request")
}

func TestStaleNonceRejected(t *testing.T) {
	roster, signer := setup(t)
	second := newTestSigner(t)
	third := newTestSigner(t)

	signature := signer.sign(t, "add-debug-signer", []byte(normalised(second.address)), 0)
	assert.NoError(t, roster.Add(second.address, signature), "first add failed")

	// re-using nonce zero must fail after the increment
	replay := signer.sign(t, "add-debug-signer", []byte(normalised(third.address)), 0)
	err := roster.Add(third.address, replay)
	assert.Equal(t, fault.Unauthorised, err, "stale nonce accepted")
}

func TestGatedRemove(t *testing.T) {
	roster, signer := setup(t)
	second := newTestSigner(t)

	signature := signer.sign(t, "add-debug-signer", []byte(normalised(second.address)), 0)
	assert.NoError(t, roster.Add(second.address, signature), "add failed")

	signature = signer.sign(t, "remove-debug-signer", []byte(normalised(second.address)), 1)
	assert.NoError(t, roster.Remove(second.address, signature), "remove failed")

	all, err := roster.All()
	assert.NoError(t, err, "roster read failed")
	assert.Len(t, all, 1, "signatory not removed")
}

func TestBatchAdd(t *testing.T) {
	roster, signer := setup(t)
	second := newTestSigner(t)
	third := newTestSigner(t)

	payload := []byte(normalised(second.address) + "\n" + normalised(third.address))
	signature := signer.sign(t, "add-debug-signers", payload, 0)

	err := roster.AddBatch([]string{second.address, third.address}, signature)
	assert.NoError(t, err, "batch add failed")

	all, err := roster.All()
	assert.NoError(t, err, "roster read failed")
	assert.Len(t, all, 3, "batch not fully applied")
}

func TestEmptyRoster(t *testing.T) {
	access := storage.NewMemoryAccess()
	assert.NoError(t, access.Begin(), "begin failed")
	roster := debugsigner.NewRoster(access)

	signer := newTestSigner(t)
	signature := signer.sign(t, "add-debug-signer", []byte("x"), 0)
	err := roster.Authorise("add-debug-signer", []byte("x"), signature)
	assert.Equal(t, fault.RosterIsEmpty, err, "empty roster authorised a request")
}

func normalised(address string) string {
	result := make([]byte, len(address))
	for i := 0; i < len(address); i += 1 {
		c := address[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		result[i] = c
	}
	return string(result)
}
