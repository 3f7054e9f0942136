// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package relay runs a fleet of simulated oracles that answer the flight
// status requests signalled by the Surety VM.
package relay

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/vms/suretyvm/events"
	"github.com/luxfi/suretyvm/vms/suretyvm/executor"
)

const subscriptionBuffer = 256

var ErrNoOracles = errors.New("relay has no registered oracles")

// Client is the part of the VM the relay drives.
type Client interface {
	RegisterOracle(call executor.Call) ([]uint8, error)
	GetOracleIndexes(oracle ids.ShortID) ([]uint8, error)
	SubmitOracleResponse(
		call executor.Call,
		index uint8,
		airline ids.ShortID,
		flight string,
		timestamp uint64,
		status uint8,
	) (bool, error)
	GetEvents(since uint64, limit int) ([]events.Event, uint64)
	Subscribe(buffer int, kinds ...events.Kind) (<-chan events.Event, func())
}

type Config struct {
	// Contract is the authorized caller the oracles submit through
	Contract ids.ShortID
	// Oracles is the size of the fleet
	Oracles int
	// Fee is attached to every oracle registration
	Fee uint64
	// Seed derives the oracle addresses
	Seed uint64
}

type Relay struct {
	log    log.Logger
	client Client
	config Config
	status StatusSource

	oracles []ids.ShortID
	byIndex map[uint8][]ids.ShortID

	// sequence number of the last signal handled by Run
	lastSeq uint64
}

func New(logger log.Logger, client Client, config Config, status StatusSource) *Relay {
	return &Relay{
		log:     logger,
		client:  client,
		config:  config,
		status:  status,
		byIndex: make(map[uint8][]ids.ShortID),
	}
}

// Register registers the fleet. Oracles registered by a previous run keep
// their indexes.
func (r *Relay) Register() error {
	for i := 0; i < r.config.Oracles; i++ {
		oracle := OracleAddress(r.config.Seed, i)
		indexes, err := r.client.RegisterOracle(executor.Call{
			Contract: r.config.Contract,
			Sender:   oracle,
			Value:    r.config.Fee,
		})
		if errors.Is(err, executor.ErrDuplicateOracle) {
			indexes, err = r.client.GetOracleIndexes(oracle)
		}
		if err != nil {
			return fmt.Errorf("failed to register oracle %s: %w", oracle, err)
		}

		r.oracles = append(r.oracles, oracle)
		for _, index := range indexes {
			r.byIndex[index] = append(r.byIndex[index], oracle)
		}
		r.log.Debug("oracle registered",
			log.Stringer("oracle", oracle),
			log.Int("indexes", len(indexes)),
		)
	}

	r.log.Info("oracle fleet registered",
		log.Int("oracles", len(r.oracles)),
		log.Int("coveredIndexes", len(r.byIndex)),
	)
	return nil
}

// Oracles returns the addresses of the registered fleet.
func (r *Relay) Oracles() []ids.ShortID {
	return r.oracles
}

// Run answers status requests until [ctx] is cancelled or the VM stops
// publishing signals. Requests still retained by the VM's signal log when Run
// starts are answered first.
func (r *Relay) Run(ctx context.Context) error {
	if len(r.oracles) == 0 {
		return ErrNoOracles
	}

	ch, cancel := r.client.Subscribe(subscriptionBuffer, events.OracleRequestOpened)
	defer cancel()

	r.sync(events.Event{})
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			r.sync(event)
		}
	}
}

// sync answers every request signalled after the last handled signal. The
// subscription only wakes the relay: a request dropped from a full
// subscription was logged before the buffered signals are received, so it is
// read back by a later sync.
func (r *Relay) sync(wake events.Event) {
	pending, _ := r.client.GetEvents(r.lastSeq, 0)
	if len(pending) > 0 && pending[0].Seq > r.lastSeq+1 {
		r.log.Warn("signals expired before the relay read them",
			log.Uint64("from", r.lastSeq+1),
			log.Uint64("to", pending[0].Seq-1),
		)
	}
	for _, event := range pending {
		if event.Kind == events.OracleRequestOpened {
			r.respond(event)
		}
		r.lastSeq = event.Seq
	}

	if wake.Seq > r.lastSeq {
		r.respond(wake)
		r.lastSeq = wake.Seq
	}
}

// respond submits the report of every oracle holding the request index until
// the request closes.
func (r *Relay) respond(request events.Event) {
	for _, oracle := range r.byIndex[request.Index] {
		status := r.status(oracle, request.Airline, request.Flight, request.FlightTimestamp)
		finalized, err := r.client.SubmitOracleResponse(
			executor.Call{
				Contract: r.config.Contract,
				Sender:   oracle,
			},
			request.Index,
			request.Airline,
			request.Flight,
			request.FlightTimestamp,
			status,
		)
		switch {
		case errors.Is(err, executor.ErrRequestClosed):
			return
		case errors.Is(err, executor.ErrDuplicateResponse):
			continue
		case err != nil:
			r.log.Warn("oracle response rejected",
				log.Stringer("oracle", oracle),
				log.String("flight", request.Flight),
				log.Err(err),
			)
			continue
		case finalized:
			r.log.Info("flight status finalized",
				log.Stringer("airline", request.Airline),
				log.String("flight", request.Flight),
				log.Uint64("timestamp", request.FlightTimestamp),
			)
			return
		}
	}
}

// OracleAddress derives the address of the [i]th oracle of a fleet.
func OracleAddress(seed uint64, i int) ids.ShortID {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], seed)
	binary.BigEndian.PutUint64(buf[8:], uint64(i))
	hash := sha256.Sum256(buf[:])

	var addr ids.ShortID
	copy(addr[:], hash[:])
	return addr
}
