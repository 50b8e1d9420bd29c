// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - the transactional key-value facade
//
// all persistence in the engine flows through the Access contract:
// opaque byte keys, opaque byte values with a sensitivity tag, and a
// single begin/commit/abort group per external submission
//
// reads made inside a transaction observe that transaction's pending
// writes; nothing is visible to the backend until commit
//
// two backends are provided: an embedded goleveldb store for the
// daemon and an in-memory store for tests; production deployments
// substitute an HSM-backed implementation of the same contract
package storage
