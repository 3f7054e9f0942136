// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"

	safemath "github.com/luxfi/suretyvm/utils/math"
	"github.com/luxfi/suretyvm/utils/units"
	"github.com/luxfi/suretyvm/vms/suretyvm/events"
)

func TestFundAirline(t *testing.T) {
	unregistered := ids.GenerateTestShortID()

	tests := []struct {
		name        string
		sender      func(env *environment) ids.ShortID
		airline     func(env *environment) ids.ShortID
		value       uint64
		expectedErr error
	}{
		{
			name:    "self funding",
			sender:  func(env *environment) ids.ShortID { return env.bootstrap },
			airline: func(env *environment) ids.ShortID { return env.bootstrap },
			value:   10 * units.Lux,
		},
		{
			name:        "funding another airline",
			sender:      func(*environment) ids.ShortID { return ids.GenerateTestShortID() },
			airline:     func(env *environment) ids.ShortID { return env.bootstrap },
			value:       10 * units.Lux,
			expectedErr: ErrUnauthorized,
		},
		{
			name:        "unregistered airline",
			sender:      func(*environment) ids.ShortID { return unregistered },
			airline:     func(*environment) ids.ShortID { return unregistered },
			value:       10 * units.Lux,
			expectedErr: ErrNotRegistered,
		},
		{
			name:        "zero value",
			sender:      func(env *environment) ids.ShortID { return env.bootstrap },
			airline:     func(env *environment) ids.ShortID { return env.bootstrap },
			expectedErr: ErrPaymentRequired,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			env := newEnvironment(t, nil)
			e := env.executor()
			airline := test.airline(env)

			err := e.FundAirline(env.call(test.sender(env), test.value), airline)
			require.ErrorIs(err, test.expectedErr)

			balance, err := e.GetAirlineBalance(airline)
			require.NoError(err)
			if test.expectedErr != nil {
				require.Zero(balance)
				require.Empty(e.Events)
				return
			}
			require.Equal(test.value, balance)
			require.Equal([]events.Kind{events.AirlineFunded}, kinds(e.Events))
			require.Equal(test.value, e.Events[0].Amount)
		})
	}
}

func TestFundingAccumulates(t *testing.T) {
	require := require.New(t)

	env := newEnvironment(t, nil)
	e := env.executor()

	require.NoError(e.FundAirline(env.call(env.bootstrap, 4*units.Lux), env.bootstrap))
	funded, err := e.IsFunded(env.bootstrap)
	require.NoError(err)
	require.False(funded)

	require.NoError(e.FundAirline(env.call(env.bootstrap, 6*units.Lux), env.bootstrap))
	funded, err = e.IsFunded(env.bootstrap)
	require.NoError(err)
	require.True(funded)

	// no upper bound
	require.NoError(e.FundAirline(env.call(env.bootstrap, 100*units.Lux), env.bootstrap))
	balance, err := e.GetAirlineBalance(env.bootstrap)
	require.NoError(err)
	require.Equal(110*units.Lux, balance)
}

func TestFundingOverflow(t *testing.T) {
	require := require.New(t)

	env := newEnvironment(t, nil)
	e := env.executor()

	require.NoError(e.FundAirline(env.call(env.bootstrap, safemath.MaxUint[uint64]()), env.bootstrap))
	err := e.FundAirline(env.call(env.bootstrap, 1), env.bootstrap)
	require.ErrorIs(err, safemath.ErrOverflow)
}

func TestUnfundedBalanceIsZero(t *testing.T) {
	require := require.New(t)

	env := newEnvironment(t, nil)
	balance, err := env.executor().GetAirlineBalance(ids.GenerateTestShortID())
	require.NoError(err)
	require.Zero(balance)
}
