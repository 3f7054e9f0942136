// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package suretyvm

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/suretyvm/utils/math"
	"github.com/luxfi/suretyvm/utils/units"
	"github.com/luxfi/suretyvm/vms/suretyvm/config"
	"github.com/luxfi/suretyvm/vms/suretyvm/events"
	"github.com/luxfi/suretyvm/vms/suretyvm/executor"
	"github.com/luxfi/suretyvm/vms/suretyvm/executor/executormock"
	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

const (
	testFlight    = "LX100"
	testTimestamp = uint64(1_741_000_000)
	testIndex     = uint8(4)
)

var (
	testOwner     = ids.GenerateTestShortID()
	testBootstrap = ids.GenerateTestShortID()
	testContract  = ids.GenerateTestShortID()
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Owner = testOwner
	cfg.BootstrapAirline = testBootstrap
	cfg.BootstrapAirlineName = "Bootstrap Air"
	cfg.AuthorizedCallers = []ids.ShortID{testContract}
	return cfg
}

func newTestVM(t *testing.T, cfg config.Config, db database.Database) *VM {
	vm := &VM{
		Config: cfg,
		log:    log.NewNoOpLogger(),
	}
	require.NoError(t, vm.Initialize(context.Background(), db, metric.NewPrometheusMetrics("surety", prometheus.NewRegistry())))
	return vm
}

// useFixedSampler makes every oracle hold testIndex and addresses every
// request to it.
func useFixedSampler(t *testing.T, vm *VM) {
	ctrl := gomock.NewController(t)
	sampler := executormock.NewSampler(ctrl)
	sampler.EXPECT().OracleIndexes(gomock.Any(), gomock.Any(), gomock.Any()).Return([]uint8{0, testIndex, 9}).AnyTimes()
	sampler.EXPECT().RequestIndex(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(testIndex).AnyTimes()
	vm.backend.Sampler = sampler
}

func call(sender ids.ShortID, value uint64) executor.Call {
	return executor.Call{
		Contract: testContract,
		Sender:   sender,
		Value:    value,
	}
}

func registerOracles(t *testing.T, vm *VM, count int) []ids.ShortID {
	oracles := make([]ids.ShortID, count)
	for i := range oracles {
		oracles[i] = ids.GenerateTestShortID()
		_, err := vm.RegisterOracle(call(oracles[i], units.Lux))
		require.NoError(t, err)
	}
	return oracles
}

func TestInitializeGenesis(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, testConfig(), memdb.New())

	operational, err := vm.IsOperational()
	require.NoError(err)
	require.True(operational)

	authorized, err := vm.IsContractAuthorized(testContract)
	require.NoError(err)
	require.True(authorized)

	count, err := vm.NumberOfRegisteredAirlines()
	require.NoError(err)
	require.Equal(uint64(1), count)

	airline, err := vm.FetchAirlineBuffer(testBootstrap)
	require.NoError(err)
	require.True(airline.Registered)
	require.Equal(uint64(1), airline.Index)

	evs, lastSeq := vm.GetEvents(0, 0)
	require.Equal(uint64(1), lastSeq)
	require.Len(evs, 1)
	require.Equal(events.AirlineRegistered, evs[0].Kind)
	require.Equal(testBootstrap, evs[0].Subject)
}

func TestInitializeRejectsInvalidConfig(t *testing.T) {
	vm := &VM{Config: config.DefaultConfig()}
	err := vm.Initialize(context.Background(), memdb.New(), metric.NewPrometheusMetrics("surety", prometheus.NewRegistry()))
	require.ErrorIs(t, err, config.ErrInvalidOwner)
}

func TestReopenKeepsState(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	vm := newTestVM(t, testConfig(), db)
	require.NoError(vm.FundAirline(call(testBootstrap, 10*units.Lux), testBootstrap))

	reopened := newTestVM(t, testConfig(), db)
	balance, err := reopened.GetAirlineBalance(testBootstrap)
	require.NoError(err)
	require.Equal(10*units.Lux, balance)

	count, err := reopened.NumberOfRegisteredAirlines()
	require.NoError(err)
	require.Equal(uint64(1), count)
}

func TestFifthAirlineScenario(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, testConfig(), memdb.New())
	a1 := testBootstrap
	require.NoError(vm.FundAirline(call(a1, 10*units.Lux), a1))

	airlines := make([]ids.ShortID, 3)
	for i := range airlines {
		airlines[i] = ids.GenerateTestShortID()
		registered, err := vm.RegisterAirline(call(a1, 0), "Airline", airlines[i])
		require.NoError(err)
		require.True(registered)

		airline, err := vm.FetchAirlineBuffer(airlines[i])
		require.NoError(err)
		require.Equal(uint64(i+2), airline.Index)
	}
	a2, a3 := airlines[0], airlines[1]

	ch, cancel := vm.Subscribe(16)
	defer cancel()

	a5 := ids.GenerateTestShortID()
	registered, err := vm.RegisterAirline(call(a1, 0), "Fifth Air", a5)
	require.NoError(err)
	require.False(registered)
	event := <-ch
	require.Equal(events.VotesNeeded, event.Kind)
	require.Equal(a5, event.Subject)

	require.NoError(vm.FundAirline(call(a2, 10*units.Lux), a2))
	<-ch

	registered, err = vm.VoteForAirline(call(a1, 0), a5)
	require.NoError(err)
	require.False(registered)

	registered, err = vm.VoteForAirline(call(a2, 0), a5)
	require.NoError(err)
	require.False(registered)

	airline, err := vm.FetchAirlineBuffer(a5)
	require.NoError(err)
	require.False(airline.Registered)
	require.Equal(uint64(2), airline.Votes)

	_, err = vm.VoteForAirline(call(a2, 0), a5)
	require.ErrorIs(err, executor.ErrDuplicateVote)

	require.NoError(vm.FundAirline(call(a3, 10*units.Lux), a3))
	registered, err = vm.VoteForAirline(call(a3, 0), a5)
	require.NoError(err)
	require.True(registered)

	airline, err = vm.FetchAirlineBuffer(a5)
	require.NoError(err)
	require.True(airline.Registered)
	require.Equal(uint64(5), airline.Index)
	require.Equal(uint64(3), airline.Votes)
}

func TestPolicyScenario(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, testConfig(), memdb.New())
	require.NoError(vm.FundAirline(call(testBootstrap, 10*units.Lux), testBootstrap))
	require.NoError(vm.RegisterFlight(call(testBootstrap, 0), testBootstrap, testFlight))

	p1 := ids.GenerateTestShortID()
	p2 := ids.GenerateTestShortID()
	require.NoError(vm.BuyInsurance(call(p1, units.Lux), testBootstrap, testFlight))

	passengers, err := vm.GetPoliciesString(testFlight)
	require.NoError(err)
	require.Equal([]ids.ShortID{p1}, passengers)

	require.NoError(vm.BuyInsurance(call(p2, units.Lux/2), testBootstrap, testFlight))

	passengers, err = vm.GetPoliciesString(testFlight)
	require.NoError(err)
	require.Equal([]ids.ShortID{p1, p2}, passengers)

	err = vm.BuyInsurance(call(p2, units.Lux+1), testBootstrap, testFlight)
	require.ErrorIs(err, executor.ErrPremiumExceeded)

	passengers, err = vm.GetPoliciesString(testFlight)
	require.NoError(err)
	require.Len(passengers, 2)
}

func TestSettlementScenario(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, testConfig(), memdb.New())
	useFixedSampler(t, vm)
	require.NoError(vm.FundAirline(call(testBootstrap, 10*units.Lux), testBootstrap))
	require.NoError(vm.RegisterFlight(call(testBootstrap, 0), testBootstrap, testFlight))

	passenger := ids.GenerateTestShortID()
	require.NoError(vm.BuyInsurance(call(passenger, units.Lux), testBootstrap, testFlight))

	oracles := registerOracles(t, vm, 4)
	request, err := vm.FetchFlightStatus(call(passenger, 0), testBootstrap, testFlight, testTimestamp)
	require.NoError(err)
	require.Equal(testIndex, request.Index)

	for i, oracle := range oracles[:3] {
		finalized, err := vm.SubmitOracleResponse(call(oracle, 0), testIndex, testBootstrap, testFlight, testTimestamp, state.StatusLateAirline)
		require.NoError(err)
		require.Equal(i == 2, finalized)
	}

	_, err = vm.SubmitOracleResponse(call(oracles[3], 0), testIndex, testBootstrap, testFlight, testTimestamp, state.StatusOnTime)
	require.ErrorIs(err, executor.ErrRequestClosed)

	flight, err := vm.GetFlight(testBootstrap, testFlight)
	require.NoError(err)
	require.Equal(state.StatusLateAirline, flight.Status)

	credit, err := vm.GetPassengerCredit(passenger)
	require.NoError(err)
	require.Equal(3*units.Lux/2, credit)

	err = vm.Withdraw(call(passenger, 0), 2*units.Lux)
	require.ErrorIs(err, executor.ErrInsufficientCredit)
	require.NoError(vm.Withdraw(call(passenger, 0), 3*units.Lux/2))

	credit, err = vm.GetPassengerCredit(passenger)
	require.NoError(err)
	require.Zero(credit)
}

func TestFailedOperationIsAtomic(t *testing.T) {
	require := require.New(t)

	cfg := testConfig()
	// any premium above 1 µLUX overflows the payout
	cfg.PayoutNumerator = math.MaxUint[uint64]()
	cfg.PayoutDenominator = 1
	vm := newTestVM(t, cfg, memdb.New())
	useFixedSampler(t, vm)

	require.NoError(vm.FundAirline(call(testBootstrap, 10*units.Lux), testBootstrap))
	require.NoError(vm.RegisterFlight(call(testBootstrap, 0), testBootstrap, testFlight))

	p1 := ids.GenerateTestShortID()
	p2 := ids.GenerateTestShortID()
	require.NoError(vm.BuyInsurance(call(p1, 1), testBootstrap, testFlight))
	require.NoError(vm.BuyInsurance(call(p2, 2), testBootstrap, testFlight))

	oracles := registerOracles(t, vm, 3)
	_, err := vm.FetchFlightStatus(call(p1, 0), testBootstrap, testFlight, testTimestamp)
	require.NoError(err)
	for _, oracle := range oracles[:2] {
		_, err := vm.SubmitOracleResponse(call(oracle, 0), testIndex, testBootstrap, testFlight, testTimestamp, state.StatusLateAirline)
		require.NoError(err)
	}

	_, lastSeq := vm.GetEvents(0, 0)

	// p1 is credited before p2's payout overflows
	_, err = vm.SubmitOracleResponse(call(oracles[2], 0), testIndex, testBootstrap, testFlight, testTimestamp, state.StatusLateAirline)
	require.ErrorIs(err, math.ErrOverflow)

	credit, err := vm.GetPassengerCredit(p1)
	require.NoError(err)
	require.Zero(credit)

	request, err := vm.GetRequest(testIndex, testBootstrap, testFlight, testTimestamp)
	require.NoError(err)
	require.True(request.Open)
	require.False(request.Responded(oracles[2]))

	flight, err := vm.GetFlight(testBootstrap, testFlight)
	require.NoError(err)
	require.Equal(state.StatusUnknown, flight.Status)
	for _, policy := range flight.Policies {
		require.False(policy.Credited)
	}

	evs, newLastSeq := vm.GetEvents(lastSeq, 0)
	require.Empty(evs)
	require.Equal(lastSeq, newLastSeq)
}

func TestPauseBlocksMutations(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, testConfig(), memdb.New())

	err := vm.SetOperatingStatus(testBootstrap, false)
	require.ErrorIs(err, executor.ErrUnauthorized)

	require.NoError(vm.SetOperatingStatus(testOwner, false))

	err = vm.FundAirline(call(testBootstrap, 10*units.Lux), testBootstrap)
	require.ErrorIs(err, executor.ErrNotOperational)

	balance, err := vm.GetAirlineBalance(testBootstrap)
	require.NoError(err)
	require.Zero(balance)

	require.NoError(vm.SetOperatingStatus(testOwner, true))
	require.NoError(vm.FundAirline(call(testBootstrap, 10*units.Lux), testBootstrap))
}

func TestUnauthorizedContractChangesNothing(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, testConfig(), memdb.New())
	other := ids.GenerateTestShortID()
	_, lastSeq := vm.GetEvents(0, 0)

	err := vm.FundAirline(executor.Call{Contract: other, Sender: testBootstrap, Value: units.Lux}, testBootstrap)
	require.ErrorIs(err, executor.ErrUnauthorized)

	_, newLastSeq := vm.GetEvents(0, 0)
	require.Equal(lastSeq, newLastSeq)

	require.NoError(vm.RegisterContract(testOwner, other))
	require.NoError(vm.FundAirline(executor.Call{Contract: other, Sender: testBootstrap, Value: units.Lux}, testBootstrap))

	require.NoError(vm.DeauthorizeContract(testOwner, other))
	err = vm.FundAirline(executor.Call{Contract: other, Sender: testBootstrap, Value: units.Lux}, testBootstrap)
	require.ErrorIs(err, executor.ErrUnauthorized)
}

func TestHealthCheckAndShutdown(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, testConfig(), memdb.New())
	health, err := vm.HealthCheck(context.Background())
	require.NoError(err)
	require.Equal(map[string]interface{}{
		"operational":        true,
		"registeredAirlines": uint64(1),
		"lastEvent":          uint64(1),
	}, health)

	ch, _ := vm.Subscribe(1)
	require.NoError(vm.Shutdown(context.Background()))
	_, ok := <-ch
	require.False(ok)

	_, err = vm.NumberOfRegisteredAirlines()
	require.ErrorIs(err, errShutdown)
	_, err = vm.HealthCheck(context.Background())
	require.ErrorIs(err, errShutdown)

	// shutting down twice is fine
	require.NoError(vm.Shutdown(context.Background()))
}

func TestUninitializedVM(t *testing.T) {
	vm := &VM{}
	_, err := vm.IsOperational()
	require.ErrorIs(t, err, errNotInitialized)
	require.NoError(t, vm.Shutdown(context.Background()))
}
