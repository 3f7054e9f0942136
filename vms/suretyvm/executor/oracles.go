// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/vms/suretyvm/events"
	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

// RegisterOracle registers the call sender as an oracle, paid with the call
// value, and returns its assigned indexes.
func (e *Executor) RegisterOracle(call Call) ([]uint8, error) {
	if err := e.verifyCall(call); err != nil {
		return nil, err
	}
	cfg := e.Backend.Config
	if call.Value < cfg.OracleRegistrationFee {
		return nil, fmt.Errorf("%w: fee is %d, got %d", ErrPaymentRequired, cfg.OracleRegistrationFee, call.Value)
	}

	addr := call.Sender
	_, err := e.State.GetOracle(addr)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", ErrDuplicateOracle, addr)
	case !errors.Is(err, database.ErrNotFound):
		return nil, err
	}

	indexes := e.Backend.Sampler.OracleIndexes(addr, cfg.OracleIndexCount, cfg.OracleIndexRange)
	if err := verifyIndexes(indexes, cfg.OracleIndexCount, cfg.OracleIndexRange); err != nil {
		return nil, err
	}
	if err := e.State.PutOracle(addr, &state.Oracle{Indexes: indexes}); err != nil {
		return nil, err
	}

	e.emit(events.Event{
		Kind:    events.OracleRegistered,
		Subject: addr,
		Indexes: state.IndexList(indexes),
	})
	return indexes, nil
}

// GetOracleIndexes returns the indexes assigned to [oracle].
func (e *Executor) GetOracleIndexes(oracle ids.ShortID) ([]uint8, error) {
	record, err := e.State.GetOracle(oracle)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorizedOracle, oracle)
	}
	if err != nil {
		return nil, err
	}
	return record.Indexes, nil
}

// FetchFlightStatus opens a status request for the flight and signals it to
// the oracles holding its index. An existing request for the same inputs is
// returned unchanged and signalled again only while it is still open.
func (e *Executor) FetchFlightStatus(call Call, airline ids.ShortID, flight string, timestamp uint64) (*state.OracleRequest, error) {
	if err := e.verifyCall(call); err != nil {
		return nil, err
	}

	index := e.Backend.Sampler.RequestIndex(airline, flight, timestamp, e.Backend.Config.OracleIndexRange)
	request, err := e.State.GetRequest(state.RequestID(index, airline, flight, timestamp))
	switch {
	case errors.Is(err, database.ErrNotFound):
		request = &state.OracleRequest{
			Index:     index,
			Airline:   airline,
			Flight:    flight,
			Timestamp: timestamp,
			Requester: call.Sender,
			Open:      true,
		}
		if err := e.State.PutRequest(request); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case !request.Open:
		return request, nil
	}

	e.emit(events.Event{
		Kind:            events.OracleRequestOpened,
		Actor:           call.Sender,
		Airline:         airline,
		Flight:          flight,
		FlightTimestamp: timestamp,
		Index:           index,
	})
	return request, nil
}

// GetRequest returns the status request for the given inputs.
func (e *Executor) GetRequest(index uint8, airline ids.ShortID, flight string, timestamp uint64) (*state.OracleRequest, error) {
	request, err := e.State.GetRequest(state.RequestID(index, airline, flight, timestamp))
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: index %d flight %q at %d", ErrNoMatchingRequest, index, flight, timestamp)
	}
	return request, err
}

// SubmitOracleResponse records the call sender's report of [status]. The
// first status reported by a quorum of oracles closes the request, becomes
// the flight status and, for an airline caused delay, credits the insurees.
// It returns true if this response finalized the request.
func (e *Executor) SubmitOracleResponse(
	call Call,
	index uint8,
	airline ids.ShortID,
	flight string,
	timestamp uint64,
	status uint8,
) (bool, error) {
	if err := e.verifyCall(call); err != nil {
		return false, err
	}

	addr := call.Sender
	oracle, err := e.State.GetOracle(addr)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return false, fmt.Errorf("%w: %s", ErrUnauthorizedOracle, addr)
	case err != nil:
		return false, err
	case !oracle.HasIndex(index):
		return false, fmt.Errorf("%w: %s does not hold index %d", ErrUnauthorizedOracle, addr, index)
	}

	request, err := e.GetRequest(index, airline, flight, timestamp)
	if err != nil {
		return false, err
	}
	if !request.Open {
		return false, ErrRequestClosed
	}
	if request.Responded(addr) {
		return false, fmt.Errorf("%w: %s", ErrDuplicateResponse, addr)
	}
	if !state.ValidStatus(status) {
		return false, fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}

	reports := request.AddResponse(status, addr)
	e.emit(events.Event{
		Kind:            events.OracleReport,
		Subject:         addr,
		Airline:         airline,
		Flight:          flight,
		FlightTimestamp: timestamp,
		Index:           index,
		Status:          status,
	})

	finalized := uint64(reports) >= e.Backend.Config.OracleQuorum
	if finalized {
		request.Open = false
		request.Final = status
		if err := e.finalizeFlight(airline, flight, timestamp, status); err != nil {
			return false, err
		}
	}
	if err := e.State.PutRequest(request); err != nil {
		return false, err
	}
	return finalized, nil
}

// finalizeFlight writes [status] to the flight, if it is registered, and
// settles its policies on an airline caused delay.
func (e *Executor) finalizeFlight(airline ids.ShortID, number string, timestamp uint64, status uint8) error {
	e.Backend.Log.Debug("flight status finalized",
		log.Stringer("airline", airline),
		log.String("flight", number),
		log.String("status", state.StatusName(status)),
	)
	e.emit(events.Event{
		Kind:            events.FlightStatusFinalized,
		Airline:         airline,
		Flight:          number,
		FlightTimestamp: timestamp,
		Status:          status,
	})

	flight, err := e.State.GetFlight(airline, number)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	flight.Status = status
	flight.UpdatedAt = timestamp
	if status == state.StatusLateAirline {
		if err := e.creditInsurees(flight); err != nil {
			return err
		}
	}
	return e.State.PutFlight(flight)
}

func verifyIndexes(indexes []uint8, count, limit uint8) error {
	if len(indexes) != int(count) {
		return fmt.Errorf("%w: got %d indexes, want %d", errInvalidSample, len(indexes), count)
	}
	for i, index := range indexes {
		if index >= limit || slices.Contains(indexes[:i], index) {
			return fmt.Errorf("%w: %v", errInvalidSample, indexes)
		}
	}
	return nil
}
