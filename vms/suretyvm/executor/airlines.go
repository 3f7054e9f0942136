// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/vms/suretyvm/events"
	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

// RegisterBootstrapAirline registers the configured bootstrap airline with
// index 1. It is only called while building the genesis state.
func (e *Executor) RegisterBootstrapAirline() error {
	cfg := e.Backend.Config
	airline := &state.Airline{Name: cfg.BootstrapAirlineName}
	return e.register(cfg.BootstrapAirline, airline, ids.ShortEmpty)
}

// RegisterAirline proposes [addr] on behalf of the sponsoring call sender.
// While fewer than the direct registration limit are registered the airline
// is registered immediately. Otherwise it becomes a pending candidate and
// false is returned.
func (e *Executor) RegisterAirline(call Call, name string, addr ids.ShortID) (bool, error) {
	if err := e.verifyCall(call); err != nil {
		return false, err
	}
	sponsor := call.Sender
	if err := e.requireFunded(sponsor); err != nil {
		return false, err
	}

	airline, err := e.getAirline(addr)
	if err != nil {
		return false, err
	}
	if airline != nil && airline.Registered {
		return false, fmt.Errorf("%w: %s", ErrAlreadyRegistered, addr)
	}

	count, err := e.State.GetRegisteredCount()
	if err != nil {
		return false, err
	}
	if count < e.Backend.Config.DirectRegistrationLimit {
		if airline == nil {
			airline = &state.Airline{Name: name}
		}
		airline.Sponsor = sponsor
		return true, e.register(addr, airline, sponsor)
	}

	if airline == nil {
		airline = &state.Airline{
			Name:     name,
			Proposed: true,
			Sponsor:  sponsor,
		}
		if err := e.State.PutAirline(addr, airline); err != nil {
			return false, err
		}
	}
	e.emit(events.Event{
		Kind:    events.VotesNeeded,
		Subject: addr,
		Actor:   sponsor,
		Name:    airline.Name,
		Votes:   airline.Votes,
	})
	return false, nil
}

// VoteForAirline records the call sender's vote for the pending [candidate]
// and returns true if the vote registered it.
func (e *Executor) VoteForAirline(call Call, candidate ids.ShortID) (bool, error) {
	if err := e.verifyCall(call); err != nil {
		return false, err
	}
	voter := call.Sender
	if err := e.requireFunded(voter); err != nil {
		return false, err
	}

	voted, err := e.State.HasVoted(candidate, voter)
	if err != nil {
		return false, err
	}
	if voted {
		return false, fmt.Errorf("%w: %s for %s", ErrDuplicateVote, voter, candidate)
	}

	airline, err := e.getAirline(candidate)
	if err != nil {
		return false, err
	}
	if airline == nil || !airline.Pending() {
		return false, fmt.Errorf("%w: %s", ErrNotPending, candidate)
	}

	if err := e.State.PutVote(candidate, voter); err != nil {
		return false, err
	}
	airline.Votes++
	e.emit(events.Event{
		Kind:    events.VoteCast,
		Subject: candidate,
		Actor:   voter,
		Name:    airline.Name,
		Votes:   airline.Votes,
	})

	count, err := e.State.GetRegisteredCount()
	if err != nil {
		return false, err
	}
	// strict majority of the airlines registered when the vote is cast
	if airline.Votes <= count/2 {
		return false, e.State.PutAirline(candidate, airline)
	}
	return true, e.register(candidate, airline, voter)
}

// register assigns the next registration index to [airline] and stores it.
func (e *Executor) register(addr ids.ShortID, airline *state.Airline, actor ids.ShortID) error {
	count, err := e.State.GetRegisteredCount()
	if err != nil {
		return err
	}
	count++

	airline.Registered = true
	airline.Index = count
	if err := e.State.PutAirline(addr, airline); err != nil {
		return err
	}
	if err := e.State.SetRegisteredCount(count); err != nil {
		return err
	}

	e.Backend.Log.Debug("airline registered",
		log.Stringer("airline", addr),
		log.Uint64("index", count),
		log.Uint64("votes", airline.Votes),
	)
	e.emit(events.Event{
		Kind:    events.AirlineRegistered,
		Subject: addr,
		Actor:   actor,
		Name:    airline.Name,
		Votes:   airline.Votes,
	})
	return nil
}

// FetchAirlineBuffer returns the airline record of [addr], or the zero record
// if it was never proposed.
func (e *Executor) FetchAirlineBuffer(addr ids.ShortID) (*state.Airline, error) {
	airline, err := e.getAirline(addr)
	if err != nil {
		return nil, err
	}
	if airline == nil {
		airline = &state.Airline{}
	}
	return airline, nil
}

func (e *Executor) NumberOfRegisteredAirlines() (uint64, error) {
	return e.State.GetRegisteredCount()
}
