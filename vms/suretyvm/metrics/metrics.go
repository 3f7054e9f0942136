// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/luxfi/metric"

	"github.com/luxfi/suretyvm/vms/suretyvm/events"
	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

const (
	opLabel     = "op"
	resultLabel = "result"
	kindLabel   = "kind"
	statusLabel = "status"

	resultSuccess = "success"
	resultFailure = "failure"
)

var _ Metrics = (*metrics)(nil)

type Metrics interface {
	// MarkOperation counts one executed operation by outcome.
	MarkOperation(op string, err error)
	// MarkEvents updates the domain metrics from committed signals.
	MarkEvents(evs []events.Event)
	// SetRegisteredAirlines and SetOperational seed the gauges from state.
	SetRegisteredAirlines(count uint64)
	SetOperational(operational bool)
}

type metrics struct {
	operations metric.CounterVec
	signals    metric.CounterVec
	finalized  metric.CounterVec

	registeredAirlines metric.Gauge
	operational        metric.Gauge
	oracles            metric.Counter
	policies           metric.Counter

	funding   metric.Counter
	premiums  metric.Counter
	credited  metric.Counter
	withdrawn metric.Counter
}

func New(reg metric.Metrics) Metrics {
	return &metrics{
		operations: reg.NewCounterVec(
			"operations",
			"number of operations executed",
			[]string{opLabel, resultLabel},
		),
		signals: reg.NewCounterVec(
			"signals",
			"number of signals published",
			[]string{kindLabel},
		),
		finalized: reg.NewCounterVec(
			"flight_statuses_finalized",
			"number of oracle requests closed by quorum",
			[]string{statusLabel},
		),
		registeredAirlines: reg.NewGauge(
			"registered_airlines",
			"number of registered airlines",
		),
		operational: reg.NewGauge(
			"operational",
			"1 if mutating operations are accepted",
		),
		oracles: reg.NewCounter(
			"oracles_registered",
			"number of oracles registered since start",
		),
		policies: reg.NewCounter(
			"policies_purchased",
			"number of insurance policies purchased since start",
		),
		funding: reg.NewCounter(
			"funding_received",
			"µLUX deposited into airline escrow",
		),
		premiums: reg.NewCounter(
			"premiums_collected",
			"µLUX paid as insurance premiums",
		),
		credited: reg.NewCounter(
			"payouts_credited",
			"µLUX credited to insured passengers",
		),
		withdrawn: reg.NewCounter(
			"payouts_withdrawn",
			"µLUX withdrawn by insured passengers",
		),
	}
}

func (m *metrics) MarkOperation(op string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	m.operations.With(metric.Labels{
		opLabel:     op,
		resultLabel: result,
	}).Inc()
}

func (m *metrics) MarkEvents(evs []events.Event) {
	for _, event := range evs {
		m.signals.With(metric.Labels{
			kindLabel: string(event.Kind),
		}).Inc()

		switch event.Kind {
		case events.AirlineRegistered:
			m.registeredAirlines.Inc()
		case events.OperatingStatusChanged:
			m.SetOperational(event.Operational)
		case events.OracleRegistered:
			m.oracles.Inc()
		case events.AirlineFunded:
			m.funding.Add(float64(event.Amount))
		case events.InsurancePurchased:
			m.policies.Inc()
			m.premiums.Add(float64(event.Amount))
		case events.InsureeCredited:
			m.credited.Add(float64(event.Amount))
		case events.PayoutWithdrawn:
			m.withdrawn.Add(float64(event.Amount))
		case events.FlightStatusFinalized:
			m.finalized.With(metric.Labels{
				statusLabel: state.StatusName(event.Status),
			}).Inc()
		}
	}
}

func (m *metrics) SetRegisteredAirlines(count uint64) {
	m.registeredAirlines.Set(float64(count))
}

func (m *metrics) SetOperational(operational bool) {
	if operational {
		m.operational.Set(1)
	} else {
		m.operational.Set(0)
	}
}
