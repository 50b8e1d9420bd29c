// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package version

// ensure that git has a tag: "vX.Y" corresponding to major and minor
const (
	Major   = "1"
	Minor   = "4"
	Version = Major + "." + Minor
)
