// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package eos_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"

	"github.com/crossmark-inc/pegcored/blockdigest"
	"github.com/crossmark-inc/pegcored/chain"
	"github.com/crossmark-inc/pegcored/chainid"
	"github.com/crossmark-inc/pegcored/chainstore"
	"github.com/crossmark-inc/pegcored/eos"
	"github.com/crossmark-inc/pegcored/fault"
	"github.com/crossmark-inc/pegcored/peg"
)

const bridgeAccount = "xbridge.vawl"

func testConfig() *chainstore.Config {
	return &chainstore.Config{
		ChainID:            chainid.EosMainnet,
		DestinationChainID: chainid.EthereumMainnet,
		CanonToTipLength:   2,
		TailLength:         1,
		WatchAddresses:     []string{bridgeAccount},
	}
}

// a syntactically valid K1 signature: 69 encodable bytes
func wellFormedSignature() string {
	return "SIG_K1_" + base58.Encode(make([]byte, 69))
}

func buildSubmission(t *testing.T, parent blockdigest.Digest, height uint64, timestamp uint64, actions []eos.Action) ([]byte, blockdigest.Digest) {
	header := &eos.Header{
		BlockNum:          height,
		Previous:          parent.String(),
		Timestamp:         timestamp,
		Producer:          "eosproducerx",
		ProducerSignature: wellFormedSignature(),
		TransactionMroot:  blockdigest.Digest{}.String(),
		ActionMroot:       eos.ActionRoot(actions).String(),
		ScheduleVersion:   1,
	}
	id, err := eos.ComputeID(header)
	assert.NoError(t, err, "compute id failed")
	header.ID = id.String()

	if nil == actions {
		actions = []eos.Action{}
	}
	buffer, err := json.Marshal(map[string]interface{}{
		"block":   header,
		"actions": actions,
	})
	assert.NoError(t, err, "marshal failed")
	return buffer, id
}

func transferAction(to string, quantity string, memo string) eos.Action {
	return eos.Action{
		Account:  "eosio.token",
		Name:     "transfer",
		From:     "someuser1111",
		To:       to,
		Quantity: quantity,
		Memo:     memo,
	}
}

func parseChain(t *testing.T, family *eos.Family) (*chain.Block, *chain.Block) {
	parentData, parentHash := buildSubmission(t, blockdigest.Digest{}, 100, 5000, []eos.Action{})
	parentBlock, err := family.ParseBlock(parentData, false)
	assert.NoError(t, err, "parse parent failed")

	childData, _ := buildSubmission(t, parentHash, 101, 5000, []eos.Action{})
	childBlock, err := family.ParseBlock(childData, false)
	assert.NoError(t, err, "parse child failed")
	return parentBlock, childBlock
}

func TestParseAndValidateChain(t *testing.T) {
	family, err := eos.New(testConfig())
	assert.NoError(t, err, "family construction failed")

	parentBlock, childBlock := parseChain(t, family)

	// block number is embedded in the id
	assert.Equal(t, []byte{0, 0, 0, 101}, childBlock.Hash[0:4], "block number not embedded in id")
	assert.NoError(t, family.Validate(childBlock, parentBlock), "valid chain rejected")
}

func TestValidateRejectsForgedID(t *testing.T) {
	family, _ := eos.New(testConfig())

	parentBlock, childBlock := parseChain(t, family)
	childBlock.Hash[31] ^= 0xff

	err := family.Validate(childBlock, parentBlock)
	assert.Equal(t, fault.BlockHashMismatch, err, "forged id accepted")
}

func TestValidateRejectsBadSignature(t *testing.T) {
	family, _ := eos.New(testConfig())

	header := &eos.Header{
		BlockNum:          100,
		Previous:          blockdigest.Digest{}.String(),
		Timestamp:         5000,
		Producer:          "eosproducerx",
		ProducerSignature: "SIG_K1_short",
		TransactionMroot:  blockdigest.Digest{}.String(),
		ActionMroot:       blockdigest.Digest{}.String(),
	}
	id, _ := eos.ComputeID(header)
	header.ID = id.String()
	buffer, _ := json.Marshal(map[string]interface{}{"block": header, "actions": []eos.Action{}})

	block, err := family.ParseBlock(buffer, false)
	assert.NoError(t, err, "parse failed")

	err = family.Validate(block, nil)
	assert.Equal(t, fault.InvalidProducerSignature, err, "malformed signature accepted")
}

func TestValidateRejectsActionRootMismatch(t *testing.T) {
	family, _ := eos.New(testConfig())

	_, parentHash := buildSubmission(t, blockdigest.Digest{}, 100, 5000, []eos.Action{})
	parentData, _ := buildSubmission(t, blockdigest.Digest{}, 100, 5000, []eos.Action{})
	parentBlock, _ := family.ParseBlock(parentData, false)

	// actions in the body that are not committed by the root
	data, _ := buildSubmission(t, parentHash, 101, 5000, []eos.Action{})
	material := map[string]json.RawMessage{}
	assert.NoError(t, json.Unmarshal(data, &material), "rewrap failed")
	actions, _ := json.Marshal([]eos.Action{transferAction(bridgeAccount, "1.0000 EOS", "x")})
	material["actions"] = actions
	data, _ = json.Marshal(material)

	block, err := family.ParseBlock(data, false)
	assert.NoError(t, err, "parse failed")

	err = family.Validate(block, parentBlock)
	assert.Equal(t, fault.InvalidMerkleRoot, err, "uncommitted actions accepted")
}

func TestScanPegEvents(t *testing.T) {
	family, _ := eos.New(testConfig())

	actions := []eos.Action{
		transferAction(bridgeAccount, "1.2300 EOS", "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"),
		transferAction("otheraccount", "9.0000 EOS", "ignored"),
	}
	data, _ := buildSubmission(t, blockdigest.Digest{}, 100, 5000, actions)
	block, _ := family.ParseBlock(data, false)

	events, err := family.ScanPegEvents(block)
	assert.NoError(t, err, "scan failed")
	assert.Len(t, events, 1, "wrong event count")

	event := events[0]
	assert.Equal(t, int64(12300), event.Amount.Int64(), "amount wrong")
	assert.Equal(t, "someuser1111", event.Originator, "originator wrong")
	assert.Equal(t, "0x71C7656EC7ab88b098defB751B7401B5f6d8976F", event.Recipient, "memo recipient wrong")
}

func TestQuantityRoundTrip(t *testing.T) {
	formatted := eos.FormatQuantity(big.NewInt(12300), "EOS")
	assert.Equal(t, "1.2300 EOS", formatted, "quantity format wrong")
}

func TestMaterialiseActions(t *testing.T) {
	family, _ := eos.New(testConfig())
	_ = family

	builder, err := eos.NewTxBuilder(chainid.EosMainnet, "eosio.token", bridgeAccount, fakeHost{})
	assert.NoError(t, err, "builder construction failed")

	batch := &peg.Batch{
		Events: []*peg.Event{
			{Recipient: "someuser1111", Amount: big.NewInt(12300), Metadata: []byte("memo")},
		},
		Nonce: 5,
	}
	txs, err := builder.Materialise(batch)
	assert.NoError(t, err, "materialise failed")
	assert.Len(t, txs, 1, "wrong tx count")
	assert.NotEmpty(t, txs[0].Payload, "payload missing")
	assert.NotEmpty(t, txs[0].Signature, "signature missing")
	assert.Equal(t, uint64(5), txs[0].Nonce, "nonce wrong")
}

type fakeHost struct{}

func (fakeHost) Sign(payload []byte) ([]byte, error) {
	return append([]byte{0xaa}, payload[:4]...), nil
}

func (fakeHost) PublicIdentity() string {
	return "EOS_fake"
}
