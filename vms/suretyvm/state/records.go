// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"crypto/sha256"
	"encoding/binary"
	"slices"

	"github.com/luxfi/ids"
)

// Flight status codes reported by oracles.
const (
	StatusUnknown       uint8 = 0
	StatusOnTime        uint8 = 10
	StatusLateAirline   uint8 = 20
	StatusLateWeather   uint8 = 30
	StatusLateTechnical uint8 = 40
	StatusLateOther     uint8 = 50
)

// ValidStatus reports whether [status] is one of the known flight status codes.
func ValidStatus(status uint8) bool {
	switch status {
	case StatusUnknown, StatusOnTime, StatusLateAirline, StatusLateWeather, StatusLateTechnical, StatusLateOther:
		return true
	default:
		return false
	}
}

// StatusName returns a human readable name for a flight status code.
func StatusName(status uint8) string {
	switch status {
	case StatusUnknown:
		return "unknown"
	case StatusOnTime:
		return "on_time"
	case StatusLateAirline:
		return "late_airline"
	case StatusLateWeather:
		return "late_weather"
	case StatusLateTechnical:
		return "late_technical"
	case StatusLateOther:
		return "late_other"
	default:
		return "invalid"
	}
}

// Airline is a governance participant. An airline record exists once it has
// been registered directly or proposed as a candidate.
type Airline struct {
	Name       string      `serialize:"true" json:"name"`
	Registered bool        `serialize:"true" json:"isRegistered"`
	Proposed   bool        `serialize:"true" json:"isProposed"`
	Index      uint64      `serialize:"true" json:"registrationIndex"`
	Votes      uint64      `serialize:"true" json:"voteCount"`
	Sponsor    ids.ShortID `serialize:"true" json:"sponsor"`
}

// Pending reports whether the airline is a candidate awaiting votes.
func (a *Airline) Pending() bool {
	return a.Proposed && !a.Registered
}

// Policy is a passenger's insurance against one flight.
type Policy struct {
	Passenger ids.ShortID `serialize:"true" json:"passenger"`
	Premium   uint64      `serialize:"true" json:"amountPaid"`
	Credited  bool        `serialize:"true" json:"credited"`
}

// Flight is keyed by its owning airline and flight number.
type Flight struct {
	Airline    ids.ShortID `serialize:"true" json:"airline"`
	Number     string      `serialize:"true" json:"flightNumber"`
	Registered bool        `serialize:"true" json:"isRegistered"`
	Status     uint8       `serialize:"true" json:"statusCode"`
	UpdatedAt  uint64      `serialize:"true" json:"updatedAt"`
	Policies   []Policy    `serialize:"true" json:"policies"`
}

// Oracle holds the request indexes an oracle may respond to.
type Oracle struct {
	Indexes []uint8 `serialize:"true" json:"indexes"`
}

// HasIndex reports whether [index] was assigned to the oracle.
func (o *Oracle) HasIndex(index uint8) bool {
	return slices.Contains(o.Indexes, index)
}

// IndexList widens [indexes] so they encode as JSON numbers rather than a
// base64 byte string.
func IndexList(indexes []uint8) []int {
	list := make([]int, len(indexes))
	for i, index := range indexes {
		list[i] = int(index)
	}
	return list
}

// StatusResponses lists the oracles that reported one status code.
type StatusResponses struct {
	Status  uint8         `serialize:"true" json:"statusCode"`
	Oracles []ids.ShortID `serialize:"true" json:"oracles"`
}

// OracleRequest collects oracle responses for one status fetch.
type OracleRequest struct {
	Index     uint8             `serialize:"true" json:"index"`
	Airline   ids.ShortID       `serialize:"true" json:"airline"`
	Flight    string            `serialize:"true" json:"flight"`
	Timestamp uint64            `serialize:"true" json:"timestamp"`
	Requester ids.ShortID       `serialize:"true" json:"requester"`
	Open      bool              `serialize:"true" json:"isOpen"`
	Final     uint8             `serialize:"true" json:"finalStatus"`
	Responses []StatusResponses `serialize:"true" json:"responses"`
}

// ID returns the key the request is stored under.
func (r *OracleRequest) ID() ids.ID {
	return RequestID(r.Index, r.Airline, r.Flight, r.Timestamp)
}

// Responded reports whether [oracle] already responded, with any status.
func (r *OracleRequest) Responded(oracle ids.ShortID) bool {
	for _, resp := range r.Responses {
		for _, o := range resp.Oracles {
			if o == oracle {
				return true
			}
		}
	}
	return false
}

// AddResponse records [oracle] under [status] and returns the number of
// oracles that reported [status] so far. The caller must check Responded first.
func (r *OracleRequest) AddResponse(status uint8, oracle ids.ShortID) int {
	for i := range r.Responses {
		if r.Responses[i].Status == status {
			r.Responses[i].Oracles = append(r.Responses[i].Oracles, oracle)
			return len(r.Responses[i].Oracles)
		}
	}
	r.Responses = append(r.Responses, StatusResponses{
		Status:  status,
		Oracles: []ids.ShortID{oracle},
	})
	return 1
}

// RequestID deterministically derives the storage key of an oracle request.
func RequestID(index uint8, airline ids.ShortID, flight string, timestamp uint64) ids.ID {
	buf := make([]byte, 0, 1+len(airline)+len(flight)+8)
	buf = append(buf, index)
	buf = append(buf, airline[:]...)
	buf = binary.BigEndian.AppendUint64(buf, timestamp)
	buf = append(buf, flight...)
	return ids.ID(sha256.Sum256(buf))
}
