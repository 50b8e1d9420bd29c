// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainstore

import (
	"encoding/json"

	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/storage"
)

// MaximumCanonToTipLength - the confirmation depth field is one byte
// on the wire
const MaximumCanonToTipLength = 255

// Config - immutable per-chain configuration, written once at
// initialisation
type Config struct {
	ChainID                chainid.ChainID `json:"chain_id"`
	DestinationChainID     chainid.ChainID `json:"destination_chain_id"`
	CanonToTipLength       uint64          `json:"canon_to_tip_length"`
	TailLength             uint64          `json:"tail_length"`
	NetworkMagic           uint32          `json:"network_magic"`
	Testnet                bool            `json:"testnet"`
	SafeAddress            string          `json:"safe_address"`
	WatchAddresses         []string        `json:"watch_addresses"`
	FeeBasisPoints         uint64          `json:"fee_basis_points"`
	DisableFees            bool            `json:"disable_fees"`
	IncludeOriginTxDetails bool            `json:"include_origin_tx_details"`
}

// Check - reject out of range configuration before it is frozen
func (config *Config) Check() error {
	if 0 == config.CanonToTipLength || config.CanonToTipLength > MaximumCanonToTipLength {
		return fault.InvalidCanonToTipLength
	}
	if chainid.Nothing == config.ChainID {
		return fault.InvalidChainID
	}
	return nil
}

// PutConfig - freeze the configuration; a second write is refused
func (s *Store) PutConfig(config *Config) error {
	if err := config.Check(); nil != err {
		return err
	}
	if s.access.Has(s.key("config")) {
		return fault.ConfigurationIsImmutable
	}
	buffer, err := json.Marshal(config)
	if nil != err {
		return err
	}
	s.access.Put(s.key("config"), buffer, storage.SensitivityNone)
	return nil
}

// GetConfig - read the frozen configuration
func (s *Store) GetConfig() (*Config, error) {
	buffer, err := s.access.Get(s.key("config"))
	if fault.NotFound == err {
		return nil, fault.NotInitialised
	}
	if nil != err {
		return nil, err
	}
	config := &Config{}
	err = json.Unmarshal(buffer, config)
	if nil != err {
		return nil, err
	}
	return config, nil
}
