// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package events carries the signals produced by Surety VM operations to
// in-process subscribers, pollers and websocket clients.
package events

import (
	"github.com/luxfi/ids"
)

// Kind names a signal.
type Kind string

const (
	ContractAuthorized     Kind = "contractAuthorized"
	ContractDeauthorized   Kind = "contractDeauthorized"
	OperatingStatusChanged Kind = "operatingStatusChanged"
	VotesNeeded            Kind = "votesNeeded"
	VoteCast               Kind = "voteCast"
	AirlineRegistered      Kind = "airlineRegistered"
	AirlineFunded          Kind = "airlineFunded"
	FlightRegistered       Kind = "flightRegistered"
	InsurancePurchased     Kind = "insurancePurchased"
	InsureeCredited        Kind = "insureeCredited"
	PayoutWithdrawn        Kind = "payoutWithdrawn"
	OracleRegistered       Kind = "oracleRegistered"
	OracleRequestOpened    Kind = "oracleRequest"
	OracleReport           Kind = "oracleReport"
	FlightStatusFinalized  Kind = "flightStatusInfo"
)

// Event is one emitted signal. Only the fields relevant to its Kind are set.
//
// Subject is the participant the signal is about: the authorized contract,
// the airline being registered or funded, the passenger, or the oracle.
// Actor is the participant that caused it when different from Subject.
type Event struct {
	Seq  uint64 `json:"seq"`
	Kind Kind   `json:"kind"`
	Time int64  `json:"time"`

	Subject ids.ShortID `json:"subject"`
	Actor   ids.ShortID `json:"actor"`
	Airline ids.ShortID `json:"airline"`

	Name            string `json:"name,omitempty"`
	Flight          string `json:"flight,omitempty"`
	FlightTimestamp uint64 `json:"flightTimestamp,omitempty"`
	Index           uint8  `json:"index"`
	Indexes         []int  `json:"indexes,omitempty"`
	Status          uint8  `json:"status"`
	Amount          uint64 `json:"amount,omitempty"`
	Votes           uint64 `json:"votes,omitempty"`
	Operational     bool   `json:"operational"`
}

// Participants returns the distinct non-empty addresses named by the event.
func (e *Event) Participants() []ids.ShortID {
	participants := make([]ids.ShortID, 0, 3)
	for _, addr := range []ids.ShortID{e.Subject, e.Actor, e.Airline} {
		if addr == ids.ShortEmpty {
			continue
		}
		duplicate := false
		for _, p := range participants {
			if p == addr {
				duplicate = true
				break
			}
		}
		if !duplicate {
			participants = append(participants, addr)
		}
	}
	return participants
}
