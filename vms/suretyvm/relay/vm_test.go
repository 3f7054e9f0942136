// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/suretyvm/utils/units"
	"github.com/luxfi/suretyvm/vms/suretyvm"
	"github.com/luxfi/suretyvm/vms/suretyvm/config"
	"github.com/luxfi/suretyvm/vms/suretyvm/executor"
	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

func newTestVM(t *testing.T, owner, airline ids.ShortID) (*suretyvm.VM, config.Config) {
	require := require.New(t)

	cfg := config.DefaultConfig()
	cfg.Owner = owner
	cfg.BootstrapAirline = airline
	cfg.AuthorizedCallers = []ids.ShortID{testCaller}
	cfg.SamplerSeed = 11

	vmIntf, err := suretyvm.NewFactory(cfg).New(log.NewNoOpLogger())
	require.NoError(err)
	vm := vmIntf.(*suretyvm.VM)
	require.NoError(vm.Initialize(context.Background(), memdb.New(), metric.NewPrometheusMetrics("surety", prometheus.NewRegistry())))
	t.Cleanup(func() {
		require.NoError(vm.Shutdown(context.Background()))
	})
	return vm, cfg
}

func TestRelaySettlesFlight(t *testing.T) {
	require := require.New(t)

	var (
		owner     = ids.GenerateTestShortID()
		airline   = ids.GenerateTestShortID()
		passenger = ids.GenerateTestShortID()
		flight    = "LX200"
		timestamp = uint64(1_741_000_000)
	)
	vm, cfg := newTestVM(t, owner, airline)

	caller := func(sender ids.ShortID, value uint64) executor.Call {
		return executor.Call{Contract: testCaller, Sender: sender, Value: value}
	}
	require.NoError(vm.FundAirline(caller(airline, cfg.FundingThreshold), airline))
	require.NoError(vm.RegisterFlight(caller(airline, 0), airline, flight))
	require.NoError(vm.BuyInsurance(caller(passenger, units.Lux), airline, flight))

	r := New(
		log.NewNoOpLogger(),
		vm,
		Config{
			Contract: testCaller,
			Oracles:  60,
			Fee:      cfg.OracleRegistrationFee,
			Seed:     3,
		},
		FixedStatus(state.StatusLateAirline),
	)
	require.NoError(r.Register())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- r.Run(ctx)
	}()

	// Requesting again re-signals an open request, covering a request made
	// before the relay subscribed.
	require.Eventually(func() bool {
		request, err := vm.FetchFlightStatus(caller(passenger, 0), airline, flight, timestamp)
		return err == nil && !request.Open
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(<-done)

	f, err := vm.GetFlight(airline, flight)
	require.NoError(err)
	require.Equal(state.StatusLateAirline, f.Status)

	credit, err := vm.GetPassengerCredit(passenger)
	require.NoError(err)
	require.Equal(units.Lux*3/2, credit)
}

func TestRelaySettlesRequestBurst(t *testing.T) {
	require := require.New(t)

	var (
		airline   = ids.GenerateTestShortID()
		timestamp = uint64(1_741_000_000)
		// more requests than the subscription holds
		flights = subscriptionBuffer + 64
	)
	vm, cfg := newTestVM(t, ids.GenerateTestShortID(), airline)
	call := executor.Call{Contract: testCaller, Sender: airline}

	r := New(
		log.NewNoOpLogger(),
		vm,
		Config{
			Contract: testCaller,
			Oracles:  60,
			Fee:      cfg.OracleRegistrationFee,
			Seed:     5,
		},
		FixedStatus(state.StatusOnTime),
	)
	require.NoError(r.Register())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- r.Run(ctx)
	}()

	numbers := make([]string, flights)
	for i := range numbers {
		numbers[i] = fmt.Sprintf("LX%d", 1000+i)
		_, err := vm.FetchFlightStatus(call, airline, numbers[i], timestamp)
		require.NoError(err)
	}

	require.Eventually(func() bool {
		for _, number := range numbers {
			request, err := vm.FetchFlightStatus(call, airline, number, timestamp)
			if err != nil || request.Open {
				return false
			}
		}
		return true
	}, 10*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(<-done)
}
