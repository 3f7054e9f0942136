// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/utils/math"
	"github.com/luxfi/suretyvm/vms/suretyvm/events"
	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

// RegisterFlight registers [number] for [airline]. Only the funded airline
// itself may register its flights.
func (e *Executor) RegisterFlight(call Call, airline ids.ShortID, number string) error {
	if err := e.verifyCall(call); err != nil {
		return err
	}
	if call.Sender != airline {
		return fmt.Errorf("%w: %s cannot register flights of %s", ErrUnauthorized, call.Sender, airline)
	}
	if err := e.requireFunded(airline); err != nil {
		return err
	}

	_, err := e.State.GetFlight(airline, number)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s %q", ErrDuplicateFlight, airline, number)
	case !errors.Is(err, database.ErrNotFound):
		return err
	}

	flight := &state.Flight{
		Airline:    airline,
		Number:     number,
		Registered: true,
		Status:     state.StatusUnknown,
		UpdatedAt:  e.Backend.Clk.Unix(),
	}
	if err := e.State.PutFlight(flight); err != nil {
		return err
	}
	numbers, err := e.State.GetAirlineFlights(airline)
	if err != nil {
		return err
	}
	if err := e.State.PutAirlineFlights(airline, append(numbers, number)); err != nil {
		return err
	}

	e.emit(events.Event{
		Kind:    events.FlightRegistered,
		Subject: airline,
		Airline: airline,
		Flight:  number,
	})
	return nil
}

func (e *Executor) GetRegisteredFlights(airline ids.ShortID) ([]string, error) {
	return e.State.GetAirlineFlights(airline)
}

// GetFlight returns [database.ErrNotFound] wrapped in ErrFlightNotRegistered
// when the flight does not exist.
func (e *Executor) GetFlight(airline ids.ShortID, number string) (*state.Flight, error) {
	flight, err := e.State.GetFlight(airline, number)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s %q: %w", ErrFlightNotRegistered, airline, number, err)
	}
	return flight, err
}

// BuyInsurance attaches a policy for the call sender, paid with the call
// value, to the flight.
func (e *Executor) BuyInsurance(call Call, airline ids.ShortID, number string) error {
	if err := e.verifyCall(call); err != nil {
		return err
	}
	flight, err := e.GetFlight(airline, number)
	if err != nil {
		return err
	}
	if !flight.Registered {
		return fmt.Errorf("%w: %s %q", ErrFlightNotRegistered, airline, number)
	}
	if call.Value == 0 {
		return ErrPaymentRequired
	}
	if call.Value > e.Backend.Config.MaxPremium {
		return fmt.Errorf("%w: %d > %d", ErrPremiumExceeded, call.Value, e.Backend.Config.MaxPremium)
	}

	passenger := call.Sender
	flight.Policies = append(flight.Policies, state.Policy{
		Passenger: passenger,
		Premium:   call.Value,
	})
	if err := e.State.PutFlight(flight); err != nil {
		return err
	}
	passengers, err := e.State.GetFlightPassengers(number)
	if err != nil {
		return err
	}
	if err := e.State.PutFlightPassengers(number, append(passengers, passenger)); err != nil {
		return err
	}

	e.emit(events.Event{
		Kind:    events.InsurancePurchased,
		Subject: passenger,
		Airline: airline,
		Flight:  number,
		Amount:  call.Value,
	})
	return nil
}

// GetPoliciesString returns the insured passengers of every flight numbered
// [number], in purchase order.
func (e *Executor) GetPoliciesString(number string) ([]ids.ShortID, error) {
	return e.State.GetFlightPassengers(number)
}

func (e *Executor) GetPassengerCredit(passenger ids.ShortID) (uint64, error) {
	return e.State.GetCredit(passenger)
}

// Withdraw debits [amount] from the call sender's credit. The host transfers
// the value.
func (e *Executor) Withdraw(call Call, amount uint64) error {
	if err := e.verifyCall(call); err != nil {
		return err
	}
	if amount == 0 {
		return ErrPaymentRequired
	}
	passenger := call.Sender
	credit, err := e.State.GetCredit(passenger)
	if err != nil {
		return err
	}
	if amount > credit {
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientCredit, amount, credit)
	}
	if err := e.State.SetCredit(passenger, credit-amount); err != nil {
		return err
	}

	e.emit(events.Event{
		Kind:    events.PayoutWithdrawn,
		Subject: passenger,
		Amount:  amount,
	})
	return nil
}

// creditInsurees credits the payout of every policy of [flight] that was not
// credited yet. The caller stores the flight.
func (e *Executor) creditInsurees(flight *state.Flight) error {
	cfg := e.Backend.Config
	for i := range flight.Policies {
		policy := &flight.Policies[i]
		if policy.Credited {
			continue
		}
		payout, err := math.MulDiv(policy.Premium, cfg.PayoutNumerator, cfg.PayoutDenominator)
		if err != nil {
			return err
		}
		credit, err := e.State.GetCredit(policy.Passenger)
		if err != nil {
			return err
		}
		credit, err = math.Add(credit, payout)
		if err != nil {
			return err
		}
		if err := e.State.SetCredit(policy.Passenger, credit); err != nil {
			return err
		}
		policy.Credited = true

		e.Backend.Log.Debug("insuree credited",
			log.Stringer("passenger", policy.Passenger),
			log.String("flight", flight.Number),
			log.Uint64("payout", payout),
		)
		e.emit(events.Event{
			Kind:    events.InsureeCredited,
			Subject: policy.Passenger,
			Airline: flight.Airline,
			Flight:  flight.Number,
			Amount:  payout,
		})
	}
	return nil
}
