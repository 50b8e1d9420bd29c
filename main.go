// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// pegcored - thin command line wrapper around the bridge cores
//
// parses flags, loads JSON inputs from disk, prints JSON outputs;
// all engine state lives in the configured database
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"

	"github.com/crossmark-inc/pegcored/algorand"
	"github.com/crossmark-inc/pegcored/bitcoin"
	"github.com/crossmark-inc/pegcored/chain"
	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/chainstore"
	"github.com/crossmark-inc/pegcored/configuration"
	"github.com/crossmark-inc/pegcored/enclave"
	"github.com/crossmark-inc/pegcored/engine"
	"github.com/crossmark-inc/pegcored/eos"
	"github.com/crossmark-inc/pegcored/ethereum"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/storage"
	"github.com/crossmark-inc/pegcored/version"
)

type globalFlags struct {
	verbose bool
	config  string
}

func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	globals := globalFlags{}

	app := cli.NewApp()
	app.Name = "pegcored"
	app.Usage = "cross-chain bridge core"
	app.Version = version.Version
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:        "verbose, v",
			Usage:       " verbose result",
			Destination: &globals.verbose,
		},
		cli.StringFlag{
			Name:        "config, c",
			Value:       "pegcored.conf",
			Usage:       "configuration file",
			Destination: &globals.config,
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "init",
			Usage:     "install the anchor block for a chain",
			ArgsUsage: "chain block-file",
			Action: func(c *cli.Context) error {
				runInit(c, &globals)
				return nil
			},
		},
		{
			Name:      "submit",
			Usage:     "submit a block or a batch of blocks",
			ArgsUsage: "chain block-file",
			Action: func(c *cli.Context) error {
				runSubmit(c, &globals)
				return nil
			},
		},
		{
			Name:  "state",
			Usage: "print the enclave state snapshot",
			Action: func(c *cli.Context) error {
				runState(c, &globals)
				return nil
			},
		},
		{
			Name:      "debug-add-signers",
			Usage:     "add debug signatories (comma separated)",
			ArgsUsage: "chain address[,address...]",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "sig",
					Usage: "hex signature over the canonical request",
				},
			},
			Action: func(c *cli.Context) error {
				runDebugSigners(c, &globals, true)
				return nil
			},
		},
		{
			Name:      "debug-remove-signer",
			Usage:     "remove a debug signatory",
			ArgsUsage: "chain address",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "sig",
					Usage: "hex signature over the canonical request",
				},
			},
			Action: func(c *cli.Context) error {
				runDebugSigners(c, &globals, false)
				return nil
			},
		},
	}

	if err := app.Run(os.Args); nil != err {
		exitwithstatus.Message("%s: %s", app.Name, err)
	}
}

// open the database and the logging system
func setup(globals *globalFlags) (*configuration.Configuration, *storage.LevelDBAccess) {
	config, err := configuration.GetConfiguration(globals.config)
	if nil != err {
		exitwithstatus.Message("pegcored: configuration error: %s", err)
	}

	// the logging system must exist before any engine is built
	if "" == config.Logging.Directory {
		config.Logging.Directory = config.DataDirectory
	}
	if "" == config.Logging.File {
		config.Logging.File = "pegcored.log"
	}
	if 0 == config.Logging.Size {
		config.Logging.Size = 1048576
		config.Logging.Count = 10
	}
	if nil == config.Logging.Levels {
		config.Logging.Levels = map[string]string{logger.DefaultTag: "error"}
	}
	if err := logger.Initialise(config.Logging); nil != err {
		exitwithstatus.Message("pegcored: logger error: %s", err)
	}

	access, err := storage.NewLevelDBAccess(config.Database)
	if nil != err {
		exitwithstatus.Message("pegcored: database error: %s", err)
	}
	return config, access
}

// build the engine for one configured chain
func buildEngine(config *configuration.Configuration, access storage.Access, chainName string) (*engine.Engine, *chainstore.Config) {
	for _, section := range config.Chains {
		if section.Chain != chainName {
			continue
		}
		storeConfig, err := section.StoreConfig()
		if nil != err {
			exitwithstatus.Message("pegcored: chain configuration error: %s", err)
		}

		var family chain.Family
		switch storeConfig.ChainID.Family() {
		case chainid.FamilyEVM:
			family, err = ethereum.New(storeConfig)
		case chainid.FamilyUTXO:
			family, err = bitcoin.New(storeConfig)
		case chainid.FamilyEOS:
			family, err = eos.New(storeConfig)
		case chainid.FamilyAlgorand:
			family, err = algorand.New(storeConfig)
		default:
			err = fault.IncorrectChainIdentifier
		}
		if nil != err {
			exitwithstatus.Message("pegcored: family error: %s", err)
		}

		return engine.New(access, family, &engine.Options{
			NonValidating:    section.NonValidating,
			FirstDebugSigner: section.FirstDebugSigner,
		}), storeConfig
	}
	exitwithstatus.Message("pegcored: chain not configured: %s", chainName)
	return nil, nil
}

func readFileArgument(c *cli.Context, position int) []byte {
	fileName := c.Args().Get(position)
	if "" == fileName {
		exitwithstatus.Message("pegcored: missing file argument")
	}
	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		exitwithstatus.Message("pegcored: cannot read: %s: %s", fileName, err)
	}
	return data
}

func printJSON(value interface{}) {
	buffer, err := json.MarshalIndent(value, "", "  ")
	if nil != err {
		exitwithstatus.Message("pegcored: json error: %s", err)
	}
	fmt.Printf("%s\n", buffer)
}

func runInit(c *cli.Context, globals *globalFlags) {
	config, access := setup(globals)
	defer access.Close()

	e, storeConfig := buildEngine(config, access, c.Args().Get(0))
	data := readFileArgument(c, 1)

	if err := e.Initialise(data, storeConfig); nil != err {
		printJSON(map[string]string{"error": err.Error()})
		exitwithstatus.Message("pegcored: initialise error: %s", err)
	}
	printJSON(map[string]bool{"initialised": true})
}

func runSubmit(c *cli.Context, globals *globalFlags) {
	config, access := setup(globals)
	defer access.Close()

	e, _ := buildEngine(config, access, c.Args().Get(0))
	data := readFileArgument(c, 1)

	results, err := e.SubmitBlock(data)
	if nil != err {
		printJSON(map[string]string{"error": err.Error()})
		exitwithstatus.Message("pegcored: submit error: %s", err)
	}
	printJSON(results)
}

func runState(c *cli.Context, globals *globalFlags) {
	config, access := setup(globals)
	defer access.Close()

	ids := make([]chainid.ChainID, 0, len(config.Chains))
	for _, section := range config.Chains {
		id, err := chainid.FromString(section.Chain)
		if nil != err {
			exitwithstatus.Message("pegcored: chain configuration error: %s", err)
		}
		ids = append(ids, id)
	}

	state, err := enclave.Report(access, ids)
	if nil != err {
		printJSON(map[string]string{"error": err.Error()})
		exitwithstatus.Message("pegcored: state error: %s", err)
	}
	printJSON(state)
}

func runDebugSigners(c *cli.Context, globals *globalFlags, add bool) {
	config, access := setup(globals)
	defer access.Close()

	e, _ := buildEngine(config, access, c.Args().Get(0))

	signature, err := hex.DecodeString(strings.TrimPrefix(c.String("sig"), "0x"))
	if nil != err {
		exitwithstatus.Message("pegcored: signature decode error: %s", err)
	}

	if add {
		addresses := strings.Split(c.Args().Get(1), ",")
		err = e.DebugAddSigners(addresses, signature)
	} else {
		err = e.DebugRemoveSigner(c.Args().Get(1), signature)
	}
	if nil != err {
		printJSON(map[string]string{"error": err.Error()})
		exitwithstatus.Message("pegcored: debug signer error: %s", err)
	}
	printJSON(map[string]bool{"ok": true})
}
