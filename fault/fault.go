// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Crossmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type RejectedError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyInitialised           = ExistsError("already initialised")
	AncientBlock                 = RejectedError("block is below the allowable re-org depth")
	BlockAlreadyExists           = ExistsError("block already exists")
	BlockBodyIsMissing           = InvalidError("block body is missing")
	BlockHashMismatch            = InvalidError("block hash does not match computed hash")
	BlockVersionTooOld           = InvalidError("block version is too old")
	CannotDecodeAddress          = InvalidError("cannot decode address")
	CannotDecodeBlock            = ProcessError("cannot decode block")
	CannotDecodeSignature        = InvalidError("cannot decode signature")
	ConfigurationIsImmutable     = InvalidError("configuration is immutable after initialisation")
	DeviceError                  = ProcessError("signing device error")
	DoubleSpendUtxo              = InvalidError("utxo is already spent")
	IncorrectChainIdentifier     = InvalidError("incorrect chain identifier")
	InsufficientUtxoValue        = InvalidError("insufficient utxo value for transaction")
	InvalidBlockHeaderDifficulty = InvalidError("invalid block header difficulty")
	InvalidBlockHeaderSize       = InvalidError("invalid block header size")
	InvalidBlockHeaderTimestamp  = InvalidError("invalid block header timestamp")
	InvalidBlockLinkage          = InvalidError("invalid block linkage")
	InvalidBloomFilter           = InvalidError("logs are not present in header bloom")
	InvalidCanonToTipLength      = InvalidError("canon to tip length is out of range")
	InvalidChainID               = InvalidError("invalid metadata chain id")
	InvalidCurrency              = InvalidError("invalid currency")
	InvalidCurrencyAddress       = InvalidError("invalid currency address")
	InvalidKeyLength             = InvalidError("invalid key length")
	InvalidMerkleRoot            = InvalidError("merkle root does not match computed root")
	InvalidNonce                 = InvalidError("invalid signatory nonce")
	InvalidPegEvent              = InvalidError("invalid peg event")
	InvalidProducerSignature     = InvalidError("invalid producer signature")
	InvalidProofOfWork           = InvalidError("invalid proof of work")
	InvalidReceiptsRoot          = InvalidError("receipts root does not match computed root")
	InvalidSealCertificate       = InvalidError("invalid seal certificate")
	InvalidStructure             = InvalidError("invalid structure")
	KeyUnavailable               = ProcessError("signing key unavailable")
	LinkerHashMissing            = NotFoundError("linker hash is missing")
	MalformedSubmission          = InvalidError("submission bytes cannot be parsed")
	MissingParameters            = InvalidError("missing parameters")
	NotFound                     = NotFoundError("not found")
	NotInitialised               = ProcessError("not initialised")
	OrphanBlock                  = RejectedError("block has no parent in store")
	OutOfRangeSensitivity        = InvalidError("sensitivity is out of range")
	ReorgTooDeep                 = RejectedError("re-org would exceed retention window")
	RosterIsEmpty                = NotFoundError("debug signatory roster is empty")
	SignatoryAlreadyExists       = ExistsError("debug signatory already exists")
	SignatoryNotFound            = NotFoundError("debug signatory not found")
	TransactionAborted           = ProcessError("storage transaction was aborted")
	TransactionAlreadyInUse      = ProcessError("storage transaction already in use")
	TransactionNotInUse          = ProcessError("no storage transaction in progress")
	Unauthorised                 = RejectedError("debug signature check failed")
	WrongNetworkForBlockHeader   = InvalidError("wrong network for block header")
)

// Error - the error interface base method
func (e GenericError) Error() string { return string(e) }

// Error - the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e RejectedError) Error() string { return string(e) }

// IsErrExists - determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
func IsErrRejected(e error) bool { _, ok := e.(RejectedError); return ok }
