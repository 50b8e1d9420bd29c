// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// a module to provide fixed error instances
// allowing easy comparison without having to resort to partial
// string matches
package fault
