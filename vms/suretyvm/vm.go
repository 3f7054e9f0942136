// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package suretyvm implements the Surety VM: a permissioned airline registry
// admitting members through funding gated votes, flight insurance sold to
// passengers and flight statuses resolved by a quorum of oracles.
package suretyvm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/rpc/v2"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/luxfi/pubsub"
	"github.com/luxfi/utils/json"

	"github.com/luxfi/suretyvm/utils/timer/mockable"
	"github.com/luxfi/suretyvm/vms/suretyvm/config"
	"github.com/luxfi/suretyvm/vms/suretyvm/events"
	"github.com/luxfi/suretyvm/vms/suretyvm/executor"
	"github.com/luxfi/suretyvm/vms/suretyvm/metrics"
	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

const (
	// Name is the JSON-RPC service name.
	Name = "surety"

	Version = "1.0.0"

	// EventsEndpoint serves the websocket signal feed, relative to the VM's
	// handler root.
	EventsEndpoint = "/events"
)

var (
	errNotInitialized = errors.New("vm is not initialized")
	errShutdown       = errors.New("vm is shut down")
)

// VM serializes every operation behind a single lock. Each mutating
// operation runs against a staged view of the state that is committed only if
// the operation succeeds, after which its signals are published.
type VM struct {
	config.Config

	log     log.Logger
	clock   mockable.Clock
	metrics metrics.Metrics

	lock     sync.Mutex
	db       database.Database
	state    state.State
	backend  *executor.Backend
	events   *events.Log
	pubsub   *pubsub.Server
	shutdown bool
}

// Initialize opens the state stored in [db], writing the genesis state on
// first use.
func (vm *VM) Initialize(
	_ context.Context,
	db database.Database,
	reg metric.Metrics,
) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if err := vm.Config.Verify(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if vm.log == nil {
		vm.log = log.NewNoOpLogger()
	}

	vm.metrics = metrics.New(reg)
	vm.db = db
	vm.state = state.New(db)
	vm.backend = &executor.Backend{
		Config:  &vm.Config,
		Clk:     &vm.clock,
		Sampler: executor.NewSampler(vm.Config.SamplerSeed),
		Log:     vm.log,
	}
	vm.events = events.NewLog(vm.log, vm.Config.EventRetention)
	vm.pubsub = pubsub.New(vm.log)
	vm.events.SetPublisher(vm.pubsub)

	if err := vm.initGenesis(); err != nil {
		vm.state.Abort()
		return fmt.Errorf("failed to initialize genesis state: %w", err)
	}

	count, err := vm.state.GetRegisteredCount()
	if err != nil {
		return err
	}
	operational, err := vm.state.IsOperational()
	if err != nil {
		return err
	}
	vm.metrics.SetRegisteredAirlines(count)
	vm.metrics.SetOperational(operational)

	vm.log.Info("surety VM initialized",
		log.Stringer("owner", vm.Config.Owner),
		log.Stringer("bootstrapAirline", vm.Config.BootstrapAirline),
		log.Uint64("registeredAirlines", count),
		log.Bool("operational", operational),
	)
	return nil
}

// initGenesis registers the bootstrap airline and the configured callers the
// first time the state is opened. Later starts keep the stored state.
func (vm *VM) initGenesis() error {
	initialized, err := vm.state.IsInitialized()
	if err != nil || initialized {
		return err
	}

	if err := vm.state.SetOperational(true); err != nil {
		return err
	}
	for _, caller := range vm.Config.AuthorizedCallers {
		if err := vm.state.SetAuthorized(caller, true); err != nil {
			return err
		}
	}
	e := executor.New(vm.backend, vm.state)
	if err := e.RegisterBootstrapAirline(); err != nil {
		return err
	}
	if err := vm.state.SetInitialized(); err != nil {
		return err
	}
	if err := vm.state.Commit(); err != nil {
		return err
	}
	vm.events.Publish(e.Events...)
	return nil
}

// execute runs the mutating operation [op]. Its writes are committed and its
// signals published only if it succeeds.
func (vm *VM) execute(op string, f func(e *executor.Executor) error) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if err := vm.ready(); err != nil {
		return err
	}

	e := executor.New(vm.backend, vm.state)
	err := f(e)
	if err == nil {
		err = vm.state.Commit()
	}
	vm.metrics.MarkOperation(op, err)
	if err != nil {
		vm.state.Abort()
		vm.log.Debug("operation failed",
			log.String("op", op),
			log.Err(err),
		)
		return err
	}

	published := vm.events.Publish(e.Events...)
	vm.metrics.MarkEvents(published)
	return nil
}

// read runs the read only operation [f].
func (vm *VM) read(f func(e *executor.Executor) error) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if err := vm.ready(); err != nil {
		return err
	}
	return f(executor.New(vm.backend, vm.state))
}

func (vm *VM) ready() error {
	switch {
	case vm.shutdown:
		return errShutdown
	case vm.state == nil:
		return errNotInitialized
	default:
		return nil
	}
}

func (vm *VM) IsOperational() (bool, error) {
	var operational bool
	err := vm.read(func(e *executor.Executor) error {
		var err error
		operational, err = e.IsOperational()
		return err
	})
	return operational, err
}

func (vm *VM) SetOperatingStatus(sender ids.ShortID, operational bool) error {
	return vm.execute("setOperatingStatus", func(e *executor.Executor) error {
		return e.SetOperatingStatus(sender, operational)
	})
}

func (vm *VM) RegisterContract(sender, contract ids.ShortID) error {
	return vm.execute("registerContract", func(e *executor.Executor) error {
		return e.RegisterContract(sender, contract)
	})
}

func (vm *VM) DeauthorizeContract(sender, contract ids.ShortID) error {
	return vm.execute("deauthorizeContract", func(e *executor.Executor) error {
		return e.DeauthorizeContract(sender, contract)
	})
}

func (vm *VM) IsContractAuthorized(contract ids.ShortID) (bool, error) {
	var authorized bool
	err := vm.read(func(e *executor.Executor) error {
		var err error
		authorized, err = e.IsContractAuthorized(contract)
		return err
	})
	return authorized, err
}

// RegisterAirline returns true if [airline] was registered and false if it
// became a candidate awaiting votes.
func (vm *VM) RegisterAirline(call executor.Call, name string, airline ids.ShortID) (bool, error) {
	var registered bool
	err := vm.execute("registerAirline", func(e *executor.Executor) error {
		var err error
		registered, err = e.RegisterAirline(call, name, airline)
		return err
	})
	return registered, err
}

// VoteForAirline returns true if the vote registered [candidate].
func (vm *VM) VoteForAirline(call executor.Call, candidate ids.ShortID) (bool, error) {
	var registered bool
	err := vm.execute("voteForAirline", func(e *executor.Executor) error {
		var err error
		registered, err = e.VoteForAirline(call, candidate)
		return err
	})
	return registered, err
}

func (vm *VM) FundAirline(call executor.Call, airline ids.ShortID) error {
	return vm.execute("fundAirline", func(e *executor.Executor) error {
		return e.FundAirline(call, airline)
	})
}

func (vm *VM) FetchAirlineBuffer(airline ids.ShortID) (*state.Airline, error) {
	var record *state.Airline
	err := vm.read(func(e *executor.Executor) error {
		var err error
		record, err = e.FetchAirlineBuffer(airline)
		return err
	})
	return record, err
}

func (vm *VM) NumberOfRegisteredAirlines() (uint64, error) {
	var count uint64
	err := vm.read(func(e *executor.Executor) error {
		var err error
		count, err = e.NumberOfRegisteredAirlines()
		return err
	})
	return count, err
}

func (vm *VM) GetAirlineBalance(airline ids.ShortID) (uint64, error) {
	var balance uint64
	err := vm.read(func(e *executor.Executor) error {
		var err error
		balance, err = e.GetAirlineBalance(airline)
		return err
	})
	return balance, err
}

func (vm *VM) IsFunded(airline ids.ShortID) (bool, error) {
	var funded bool
	err := vm.read(func(e *executor.Executor) error {
		var err error
		funded, err = e.IsFunded(airline)
		return err
	})
	return funded, err
}

func (vm *VM) RegisterFlight(call executor.Call, airline ids.ShortID, flight string) error {
	return vm.execute("registerFlight", func(e *executor.Executor) error {
		return e.RegisterFlight(call, airline, flight)
	})
}

func (vm *VM) GetRegisteredFlights(airline ids.ShortID) ([]string, error) {
	var flights []string
	err := vm.read(func(e *executor.Executor) error {
		var err error
		flights, err = e.GetRegisteredFlights(airline)
		return err
	})
	return flights, err
}

func (vm *VM) GetFlight(airline ids.ShortID, number string) (*state.Flight, error) {
	var flight *state.Flight
	err := vm.read(func(e *executor.Executor) error {
		var err error
		flight, err = e.GetFlight(airline, number)
		return err
	})
	return flight, err
}

func (vm *VM) BuyInsurance(call executor.Call, airline ids.ShortID, flight string) error {
	return vm.execute("buyInsurance", func(e *executor.Executor) error {
		return e.BuyInsurance(call, airline, flight)
	})
}

func (vm *VM) GetPoliciesString(flight string) ([]ids.ShortID, error) {
	var passengers []ids.ShortID
	err := vm.read(func(e *executor.Executor) error {
		var err error
		passengers, err = e.GetPoliciesString(flight)
		return err
	})
	return passengers, err
}

func (vm *VM) GetPassengerCredit(passenger ids.ShortID) (uint64, error) {
	var credit uint64
	err := vm.read(func(e *executor.Executor) error {
		var err error
		credit, err = e.GetPassengerCredit(passenger)
		return err
	})
	return credit, err
}

func (vm *VM) Withdraw(call executor.Call, amount uint64) error {
	return vm.execute("withdraw", func(e *executor.Executor) error {
		return e.Withdraw(call, amount)
	})
}

func (vm *VM) RegisterOracle(call executor.Call) ([]uint8, error) {
	var indexes []uint8
	err := vm.execute("registerOracle", func(e *executor.Executor) error {
		var err error
		indexes, err = e.RegisterOracle(call)
		return err
	})
	return indexes, err
}

func (vm *VM) GetOracleIndexes(oracle ids.ShortID) ([]uint8, error) {
	var indexes []uint8
	err := vm.read(func(e *executor.Executor) error {
		var err error
		indexes, err = e.GetOracleIndexes(oracle)
		return err
	})
	return indexes, err
}

func (vm *VM) FetchFlightStatus(call executor.Call, airline ids.ShortID, flight string, timestamp uint64) (*state.OracleRequest, error) {
	var request *state.OracleRequest
	err := vm.execute("fetchFlightStatus", func(e *executor.Executor) error {
		var err error
		request, err = e.FetchFlightStatus(call, airline, flight, timestamp)
		return err
	})
	return request, err
}

func (vm *VM) GetRequest(index uint8, airline ids.ShortID, flight string, timestamp uint64) (*state.OracleRequest, error) {
	var request *state.OracleRequest
	err := vm.read(func(e *executor.Executor) error {
		var err error
		request, err = e.GetRequest(index, airline, flight, timestamp)
		return err
	})
	return request, err
}

// SubmitOracleResponse returns true if the response finalized the request.
func (vm *VM) SubmitOracleResponse(
	call executor.Call,
	index uint8,
	airline ids.ShortID,
	flight string,
	timestamp uint64,
	status uint8,
) (bool, error) {
	var finalized bool
	err := vm.execute("submitOracleResponse", func(e *executor.Executor) error {
		var err error
		finalized, err = e.SubmitOracleResponse(call, index, airline, flight, timestamp, status)
		return err
	})
	return finalized, err
}

// GetEvents returns up to [limit] retained signals published after [since]
// and the sequence number of the latest signal.
func (vm *VM) GetEvents(since uint64, limit int) ([]events.Event, uint64) {
	return vm.events.Since(since, limit), vm.events.LastSeq()
}

// Subscribe delivers the signals of [kinds], or every signal if none are
// given, published after the call.
func (vm *VM) Subscribe(buffer int, kinds ...events.Kind) (<-chan events.Event, func()) {
	return vm.events.Subscribe(buffer, kinds...)
}

func (*VM) Version(context.Context) (string, error) {
	return Version, nil
}

func (vm *VM) CreateHandlers(context.Context) (map[string]http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	return map[string]http.Handler{
		"":             server,
		EventsEndpoint: vm.pubsub,
	}, server.RegisterService(&Service{vm: vm}, Name)
}

func (vm *VM) HealthCheck(context.Context) (interface{}, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if err := vm.ready(); err != nil {
		return nil, err
	}
	operational, err := vm.state.IsOperational()
	if err != nil {
		return nil, err
	}
	count, err := vm.state.GetRegisteredCount()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"operational":        operational,
		"registeredAirlines": count,
		"lastEvent":          vm.events.LastSeq(),
	}, nil
}

// Shutdown closes the signal feed and the database. Operations called after
// Shutdown fail.
func (vm *VM) Shutdown(context.Context) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.shutdown || vm.state == nil {
		vm.shutdown = true
		return nil
	}
	vm.shutdown = true
	vm.events.Close()
	vm.log.Info("shutting down surety VM")
	return errors.Join(
		vm.state.Close(),
		vm.db.Close(),
	)
}
