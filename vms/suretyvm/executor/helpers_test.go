// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/utils/timer/mockable"
	"github.com/luxfi/suretyvm/vms/suretyvm/config"
	"github.com/luxfi/suretyvm/vms/suretyvm/events"
	"github.com/luxfi/suretyvm/vms/suretyvm/executor/executormock"
	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

var genesisTime = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

type environment struct {
	backend   *Backend
	state     state.State
	owner     ids.ShortID
	contract  ids.ShortID
	bootstrap ids.ShortID
}

func newEnvironment(t *testing.T, sampler Sampler) *environment {
	require := require.New(t)

	cfg := config.DefaultConfig()
	cfg.Owner = ids.GenerateTestShortID()
	cfg.BootstrapAirline = ids.GenerateTestShortID()
	cfg.BootstrapAirlineName = "Bootstrap Air"
	require.NoError(cfg.Verify())

	if sampler == nil {
		sampler = NewSampler(0)
	}
	clk := &mockable.Clock{}
	clk.Set(genesisTime)

	env := &environment{
		backend: &Backend{
			Config:  &cfg,
			Clk:     clk,
			Sampler: sampler,
			Log:     log.NewNoOpLogger(),
		},
		state:     state.New(memdb.New()),
		owner:     cfg.Owner,
		contract:  ids.GenerateTestShortID(),
		bootstrap: cfg.BootstrapAirline,
	}

	e := env.executor()
	require.NoError(env.state.SetOperational(true))
	require.NoError(env.state.SetAuthorized(env.contract, true))
	require.NoError(e.RegisterBootstrapAirline())
	require.NoError(env.state.Commit())
	return env
}

// fixedSampler assigns [oracleIndexes] to every oracle and addresses every
// request to [requestIndex].
func fixedSampler(t *testing.T, oracleIndexes []uint8, requestIndex uint8) Sampler {
	ctrl := gomock.NewController(t)
	sampler := executormock.NewSampler(ctrl)
	sampler.EXPECT().OracleIndexes(gomock.Any(), uint8(3), uint8(10)).Return(oracleIndexes).AnyTimes()
	sampler.EXPECT().RequestIndex(gomock.Any(), gomock.Any(), gomock.Any(), uint8(10)).Return(requestIndex).AnyTimes()
	return sampler
}

func (env *environment) executor() *Executor {
	return New(env.backend, env.state)
}

func (env *environment) call(sender ids.ShortID, value uint64) Call {
	return Call{
		Contract: env.contract,
		Sender:   sender,
		Value:    value,
	}
}

func (env *environment) fund(t *testing.T, airline ids.ShortID) {
	e := env.executor()
	require.NoError(t, e.FundAirline(env.call(airline, env.backend.Config.FundingThreshold), airline))
}

// registerDirect registers [count] airlines sponsored by the funded
// bootstrap airline.
func (env *environment) registerDirect(t *testing.T, count int) []ids.ShortID {
	e := env.executor()
	airlines := make([]ids.ShortID, count)
	for i := range airlines {
		airlines[i] = ids.GenerateTestShortID()
		registered, err := e.RegisterAirline(env.call(env.bootstrap, 0), "Airline", airlines[i])
		require.NoError(t, err)
		require.True(t, registered)
	}
	return airlines
}

// registerFlight funds [airline] if needed and registers [number] for it.
func (env *environment) registerFlight(t *testing.T, airline ids.ShortID, number string) {
	e := env.executor()
	funded, err := e.IsFunded(airline)
	require.NoError(t, err)
	if !funded {
		env.fund(t, airline)
	}
	require.NoError(t, e.RegisterFlight(env.call(airline, 0), airline, number))
}

func kinds(evs []events.Event) []events.Kind {
	result := make([]events.Kind, len(evs))
	for i, event := range evs {
		result[i] = event.Kind
	}
	return result
}
