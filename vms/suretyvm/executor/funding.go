// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/utils/math"
	"github.com/luxfi/suretyvm/vms/suretyvm/events"
)

// FundAirline credits the value attached to [call] to the escrow of
// [airline]. Only the airline itself may fund it.
func (e *Executor) FundAirline(call Call, airline ids.ShortID) error {
	if err := e.verifyCall(call); err != nil {
		return err
	}
	if call.Sender != airline {
		return fmt.Errorf("%w: %s cannot fund %s", ErrUnauthorized, call.Sender, airline)
	}

	record, err := e.getAirline(airline)
	if err != nil {
		return err
	}
	if record == nil || !record.Registered {
		return fmt.Errorf("%w: %s", ErrNotRegistered, airline)
	}
	if call.Value == 0 {
		return ErrPaymentRequired
	}

	balance, err := e.State.GetBalance(airline)
	if err != nil {
		return err
	}
	balance, err = math.Add(balance, call.Value)
	if err != nil {
		return err
	}
	if err := e.State.SetBalance(airline, balance); err != nil {
		return err
	}

	e.emit(events.Event{
		Kind:    events.AirlineFunded,
		Subject: airline,
		Name:    record.Name,
		Amount:  call.Value,
	})
	return nil
}

func (e *Executor) GetAirlineBalance(airline ids.ShortID) (uint64, error) {
	return e.State.GetBalance(airline)
}
