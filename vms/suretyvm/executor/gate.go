// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/vms/suretyvm/events"
)

func (e *Executor) IsOperational() (bool, error) {
	return e.State.IsOperational()
}

// SetOperatingStatus pauses or resumes every other mutating operation.
// Setting the current status again is a no-op.
func (e *Executor) SetOperatingStatus(sender ids.ShortID, operational bool) error {
	if err := e.requireOwner(sender); err != nil {
		return err
	}
	current, err := e.State.IsOperational()
	if err != nil {
		return err
	}
	if current == operational {
		return nil
	}
	if err := e.State.SetOperational(operational); err != nil {
		return err
	}
	e.emit(events.Event{
		Kind:        events.OperatingStatusChanged,
		Actor:       sender,
		Operational: operational,
	})
	return nil
}

// RegisterContract authorizes [contract] to invoke mutating operations.
func (e *Executor) RegisterContract(sender, contract ids.ShortID) error {
	if err := e.requireOperational(); err != nil {
		return err
	}
	if err := e.requireOwner(sender); err != nil {
		return err
	}
	if err := e.State.SetAuthorized(contract, true); err != nil {
		return err
	}
	e.emit(events.Event{
		Kind:    events.ContractAuthorized,
		Subject: contract,
		Actor:   sender,
	})
	return nil
}

func (e *Executor) DeauthorizeContract(sender, contract ids.ShortID) error {
	if err := e.requireOperational(); err != nil {
		return err
	}
	if err := e.requireOwner(sender); err != nil {
		return err
	}
	if err := e.State.SetAuthorized(contract, false); err != nil {
		return err
	}
	e.emit(events.Event{
		Kind:    events.ContractDeauthorized,
		Subject: contract,
		Actor:   sender,
	})
	return nil
}

func (e *Executor) IsContractAuthorized(contract ids.ShortID) (bool, error) {
	return e.State.IsAuthorized(contract)
}

// verifyCall runs the checks shared by every gated operation.
func (e *Executor) verifyCall(call Call) error {
	if err := e.requireOperational(); err != nil {
		return err
	}
	authorized, err := e.State.IsAuthorized(call.Contract)
	if err != nil {
		return err
	}
	if !authorized {
		return fmt.Errorf("%w: contract %s", ErrUnauthorized, call.Contract)
	}
	return nil
}

func (e *Executor) requireOperational() error {
	operational, err := e.State.IsOperational()
	if err != nil {
		return err
	}
	if !operational {
		return ErrNotOperational
	}
	return nil
}

func (e *Executor) requireOwner(sender ids.ShortID) error {
	if sender != e.Backend.Config.Owner {
		return fmt.Errorf("%w: %s is not the owner", ErrUnauthorized, sender)
	}
	return nil
}
