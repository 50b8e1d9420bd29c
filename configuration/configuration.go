// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package configuration - daemon wrapper configuration
//
// the core itself takes explicit constructor values; this package
// only serves the thin command line wrapper, reading a Lua file that
// names the database, the logging setup and the per-chain blocks
package configuration

import (
	"path/filepath"

	"github.com/bitmark-inc/logger"

	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/chainstore"
)

// ChainSection - one chain block in the configuration file
type ChainSection struct {
	Chain                  string   `gluamapper:"chain"`
	DestinationChain       string   `gluamapper:"destination_chain"`
	CanonToTipLength       uint64   `gluamapper:"canon_to_tip_length"`
	TailLength             uint64   `gluamapper:"tail_length"`
	Testnet                bool     `gluamapper:"testnet"`
	SafeAddress            string   `gluamapper:"safe_address"`
	WatchAddresses         []string `gluamapper:"watch_addresses"`
	FeeBasisPoints         uint64   `gluamapper:"fee_basis_points"`
	DisableFees            bool     `gluamapper:"disable_fees"`
	IncludeOriginTxDetails bool     `gluamapper:"include_origin_tx_details"`
	NonValidating          bool     `gluamapper:"non_validating"`
	FirstDebugSigner       string   `gluamapper:"first_debug_signer"`
}

// Configuration - the full daemon wrapper configuration
type Configuration struct {
	DataDirectory string               `gluamapper:"data_directory"`
	Database      string               `gluamapper:"database"`
	Logging       logger.Configuration `gluamapper:"logging"`
	Chains        []ChainSection       `gluamapper:"chains"`
}

// GetConfiguration - read and execute the Lua configuration file
func GetConfiguration(fileName string) (*Configuration, error) {
	fileName, err := filepath.Abs(filepath.Clean(fileName))
	if nil != err {
		return nil, err
	}

	config := &Configuration{
		DataDirectory: filepath.Dir(fileName),
		Database:      "pegcore.leveldb",
	}
	if err := ParseConfigurationFile(fileName, config); nil != err {
		return nil, err
	}

	if !filepath.IsAbs(config.Database) {
		config.Database = filepath.Join(config.DataDirectory, config.Database)
	}
	if !filepath.IsAbs(config.Logging.Directory) && "" != config.Logging.Directory {
		config.Logging.Directory = filepath.Join(config.DataDirectory, config.Logging.Directory)
	}

	return config, nil
}

// StoreConfig - translate one chain section into the frozen engine
// configuration
func (section *ChainSection) StoreConfig() (*chainstore.Config, error) {
	id, err := chainid.FromString(section.Chain)
	if nil != err {
		return nil, err
	}
	destination, err := chainid.FromString(section.DestinationChain)
	if nil != err {
		return nil, err
	}
	return &chainstore.Config{
		ChainID:                id,
		DestinationChainID:     destination,
		CanonToTipLength:       section.CanonToTipLength,
		TailLength:             section.TailLength,
		Testnet:                section.Testnet,
		SafeAddress:            section.SafeAddress,
		WatchAddresses:         section.WatchAddresses,
		FeeBasisPoints:         section.FeeBasisPoints,
		DisableFees:            section.DisableFees,
		IncludeOriginTxDetails: section.IncludeOriginTxDetails,
	}, nil
}
