// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package executor implements the Surety VM operations: the authorization
// gate, the airline registry, the funding pool, the insurance pool and the
// oracle consensus engine.
package executor

import (
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/vms/suretyvm/events"
	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

// Call identifies who invokes a mutating operation.
type Call struct {
	// Contract is the calling application, checked against the authorized
	// callers.
	Contract ids.ShortID
	// Sender is the end user on whose behalf Contract calls.
	Sender ids.ShortID
	// Value is the native value attached to the call, in µLUX.
	Value uint64
}

// Executor applies operations to a single state view. Emitted signals are
// buffered in Events until the caller commits the view.
type Executor struct {
	Backend *Backend
	State   state.Chain
	Events  []events.Event
}

func New(backend *Backend, chain state.Chain) *Executor {
	return &Executor{
		Backend: backend,
		State:   chain,
	}
}

func (e *Executor) emit(event events.Event) {
	event.Time = e.Backend.Clk.Time().Unix()
	e.Events = append(e.Events, event)
	e.Backend.Log.Debug("signal emitted",
		log.String("kind", string(event.Kind)),
		log.Stringer("subject", event.Subject),
	)
}

// getAirline returns nil when the airline has never been proposed or
// registered.
func (e *Executor) getAirline(addr ids.ShortID) (*state.Airline, error) {
	airline, err := e.State.GetAirline(addr)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get airline %s: %w", addr, err)
	}
	return airline, nil
}

// IsFunded reports whether [addr] is a registered airline holding at least
// the funding threshold.
func (e *Executor) IsFunded(addr ids.ShortID) (bool, error) {
	airline, err := e.getAirline(addr)
	if err != nil || airline == nil || !airline.Registered {
		return false, err
	}
	balance, err := e.State.GetBalance(addr)
	if err != nil {
		return false, err
	}
	return balance >= e.Backend.Config.FundingThreshold, nil
}

func (e *Executor) requireFunded(addr ids.ShortID) error {
	funded, err := e.IsFunded(addr)
	if err != nil {
		return err
	}
	if !funded {
		return fmt.Errorf("%w: %s", ErrInsufficientFunding, addr)
	}
	return nil
}
