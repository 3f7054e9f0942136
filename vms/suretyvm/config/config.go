// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines configuration types for the Surety VM.
package config

import (
	"errors"
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/utils/units"
)

var (
	ErrInvalidOwner        = errors.New("owner address is required")
	ErrInvalidBootstrap    = errors.New("bootstrap airline address is required")
	ErrInvalidThreshold    = errors.New("funding threshold must be positive")
	ErrInvalidPremium      = errors.New("max premium must be positive")
	ErrInvalidPayout       = errors.New("payout ratio must be positive")
	ErrInvalidIndexConfig  = errors.New("oracle index count must be positive and fit in the index range")
	ErrInvalidQuorum       = errors.New("oracle quorum must be positive")
	ErrInvalidDirectLimit  = errors.New("direct registration limit must be positive")
	ErrInvalidEventBacklog = errors.New("event retention must be positive")
)

// Config contains configuration parameters for the Surety VM.
type Config struct {
	// Owner may manage authorized callers and the operating status
	Owner ids.ShortID `json:"owner"`

	// BootstrapAirline is registered at initialization without sponsor or funding
	BootstrapAirline     ids.ShortID `json:"bootstrapAirline"`
	BootstrapAirlineName string      `json:"bootstrapAirlineName"`

	// AuthorizedCallers are authorized at initialization in addition to later
	// registerContract calls
	AuthorizedCallers []ids.ShortID `json:"authorizedCallers"`

	// Governance

	// FundingThreshold is the escrow an airline must hold to sponsor, vote
	// and register flights
	FundingThreshold uint64 `json:"fundingThreshold"`
	// DirectRegistrationLimit is the registered count below which sponsors
	// register new airlines without a vote
	DirectRegistrationLimit uint64 `json:"directRegistrationLimit"`

	// Insurance

	// MaxPremium bounds a single policy purchase
	MaxPremium uint64 `json:"maxPremium"`
	// PayoutNumerator / PayoutDenominator is the multiplier applied to the
	// premium of a policy settled for an airline-caused delay
	PayoutNumerator   uint64 `json:"payoutNumerator"`
	PayoutDenominator uint64 `json:"payoutDenominator"`

	// Oracles

	// OracleRegistrationFee is the minimum value attached to registerOracle
	OracleRegistrationFee uint64 `json:"oracleRegistrationFee"`
	// OracleIndexCount distinct indexes are assigned to every oracle
	OracleIndexCount uint8 `json:"oracleIndexCount"`
	// OracleIndexRange bounds indexes to [0, OracleIndexRange)
	OracleIndexRange uint8 `json:"oracleIndexRange"`
	// OracleQuorum matching responses finalize a flight status
	OracleQuorum uint64 `json:"oracleQuorum"`
	// SamplerSeed seeds the oracle index sampler
	SamplerSeed uint64 `json:"samplerSeed"`

	// EventRetention is the number of signals kept for polling
	EventRetention int `json:"eventRetention"`
}

// DefaultConfig returns the default configuration for the Surety VM.
// Owner and BootstrapAirline have no sensible default and must be set.
func DefaultConfig() Config {
	return Config{
		BootstrapAirlineName: "Bootstrap Airline",

		FundingThreshold:        10 * units.Lux,
		DirectRegistrationLimit: 4,

		MaxPremium:        units.Lux,
		PayoutNumerator:   3,
		PayoutDenominator: 2, // 1.5x

		OracleRegistrationFee: units.Lux,
		OracleIndexCount:      3,
		OracleIndexRange:      10,
		OracleQuorum:          3,

		EventRetention: 4096,
	}
}

// Verify returns an error describing every invalid field.
func (c *Config) Verify() error {
	var errs []error
	if c.Owner == ids.ShortEmpty {
		errs = append(errs, ErrInvalidOwner)
	}
	if c.BootstrapAirline == ids.ShortEmpty {
		errs = append(errs, ErrInvalidBootstrap)
	}
	if c.FundingThreshold == 0 {
		errs = append(errs, ErrInvalidThreshold)
	}
	if c.DirectRegistrationLimit == 0 {
		errs = append(errs, ErrInvalidDirectLimit)
	}
	if c.MaxPremium == 0 {
		errs = append(errs, ErrInvalidPremium)
	}
	if c.PayoutNumerator == 0 || c.PayoutDenominator == 0 {
		errs = append(errs, ErrInvalidPayout)
	}
	if c.OracleIndexCount == 0 || c.OracleIndexCount > c.OracleIndexRange {
		errs = append(errs, fmt.Errorf("%w: %d of %d", ErrInvalidIndexConfig, c.OracleIndexCount, c.OracleIndexRange))
	}
	if c.OracleQuorum == 0 {
		errs = append(errs, ErrInvalidQuorum)
	}
	if c.EventRetention <= 0 {
		errs = append(errs, ErrInvalidEventBacklog)
	}
	return errors.Join(errs...)
}
