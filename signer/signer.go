// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package signer - host supplied signing contract
//
// the engine never holds a private key; payloads are handed to the
// host which returns a detached signature, normally produced inside
// an HSM
package signer

// Signer - the injected signing interface
//
// Sign may block arbitrarily; a signer reports failure as
// fault.KeyUnavailable or fault.DeviceError, and the engine passes
// the error back to the caller unchanged
type Signer interface {

	// Sign - produce a signature over payload bytes
	Sign(payload []byte) ([]byte, error)

	// PublicIdentity - the chain address of the signing key
	PublicIdentity() string
}
