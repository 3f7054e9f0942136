// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import (
	"math/rand/v2"
	"sync"

	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

// StatusSource decides the status an oracle reports for a flight.
type StatusSource func(oracle, airline ids.ShortID, flight string, timestamp uint64) uint8

var statuses = []uint8{
	state.StatusUnknown,
	state.StatusOnTime,
	state.StatusLateAirline,
	state.StatusLateWeather,
	state.StatusLateTechnical,
	state.StatusLateOther,
}

// FixedStatus makes every oracle report [status].
func FixedStatus(status uint8) StatusSource {
	return func(ids.ShortID, ids.ShortID, string, uint64) uint8 {
		return status
	}
}

// RandomStatus makes every oracle report an independently drawn status code.
func RandomStatus(seed uint64) StatusSource {
	var (
		lock sync.Mutex
		r    = rand.New(rand.NewPCG(seed, seed))
	)
	return func(ids.ShortID, ids.ShortID, string, uint64) uint8 {
		lock.Lock()
		defer lock.Unlock()

		return statuses[r.IntN(len(statuses))]
	}
}
