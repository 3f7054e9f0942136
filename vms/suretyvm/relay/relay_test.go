// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/vms/suretyvm/events"
	"github.com/luxfi/suretyvm/vms/suretyvm/executor"
	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

var (
	errTest     = errors.New("non-nil error")
	testAirline = ids.GenerateTestShortID()
	testCaller  = ids.GenerateTestShortID()
)

type submission struct {
	oracle ids.ShortID
	index  uint8
	status uint8
}

// fakeClient assigns indexes {1, 2} to every oracle and finalizes a request
// on its quorum-th response.
type fakeClient struct {
	lock        sync.Mutex
	quorum      int
	registered  map[ids.ShortID]bool
	registerErr error
	closeAfter  error
	submissions []submission
	responses   map[string]int
	signals     []events.Event
	kinds       []events.Kind
	ch          chan events.Event
	cancelled   bool
}

func newFakeClient(quorum int) *fakeClient {
	return &fakeClient{
		quorum:     quorum,
		registered: make(map[ids.ShortID]bool),
		responses:  make(map[string]int),
		ch:         make(chan events.Event, 16),
	}
}

// publish sequences [event] and delivers it to the subscription unless the
// subscription is full or filters its kind.
func (c *fakeClient) publish(event events.Event) {
	c.lock.Lock()
	defer c.lock.Unlock()

	event.Seq = uint64(len(c.signals)) + 1
	c.signals = append(c.signals, event)
	if len(c.kinds) > 0 && !slices.Contains(c.kinds, event.Kind) {
		return
	}
	select {
	case c.ch <- event:
	default:
	}
}

func (c *fakeClient) RegisterOracle(call executor.Call) ([]uint8, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.registerErr != nil {
		return nil, c.registerErr
	}
	if c.registered[call.Sender] {
		return nil, executor.ErrDuplicateOracle
	}
	c.registered[call.Sender] = true
	return []uint8{1, 2}, nil
}

func (c *fakeClient) GetOracleIndexes(oracle ids.ShortID) ([]uint8, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.registered[oracle] {
		return nil, executor.ErrUnauthorizedOracle
	}
	return []uint8{1, 2}, nil
}

func (c *fakeClient) SubmitOracleResponse(
	call executor.Call,
	index uint8,
	_ ids.ShortID,
	flight string,
	_ uint64,
	status uint8,
) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.responses[flight] >= c.quorum {
		return false, executor.ErrRequestClosed
	}
	c.responses[flight]++
	c.submissions = append(c.submissions, submission{
		oracle: call.Sender,
		index:  index,
		status: status,
	})
	if c.closeAfter != nil {
		return false, c.closeAfter
	}
	return c.responses[flight] == c.quorum, nil
}

func (c *fakeClient) GetEvents(since uint64, _ int) ([]events.Event, uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	last := uint64(len(c.signals))
	if since >= last {
		return nil, last
	}
	return append([]events.Event(nil), c.signals[since:]...), last
}

func (c *fakeClient) Subscribe(_ int, kinds ...events.Kind) (<-chan events.Event, func()) {
	c.lock.Lock()
	c.kinds = kinds
	c.lock.Unlock()

	return c.ch, func() {
		c.lock.Lock()
		defer c.lock.Unlock()

		c.cancelled = true
	}
}

func (c *fakeClient) Submissions() []submission {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([]submission(nil), c.submissions...)
}

func newTestRelay(client Client, oracles int, status StatusSource) *Relay {
	return New(
		log.NewNoOpLogger(),
		client,
		Config{
			Contract: testCaller,
			Oracles:  oracles,
			Fee:      1,
			Seed:     7,
		},
		status,
	)
}

func requestEvent(index uint8) events.Event {
	return flightRequestEvent(index, "LX100")
}

func flightRequestEvent(index uint8, flight string) events.Event {
	return events.Event{
		Kind:            events.OracleRequestOpened,
		Index:           index,
		Airline:         testAirline,
		Flight:          flight,
		FlightTimestamp: 1_741_000_000,
	}
}

func TestRegister(t *testing.T) {
	require := require.New(t)

	client := newFakeClient(3)
	r := newTestRelay(client, 5, FixedStatus(state.StatusOnTime))
	require.NoError(r.Register())
	require.Len(r.Oracles(), 5)
	require.Len(r.byIndex[1], 5)
	require.Len(r.byIndex[2], 5)
	require.Empty(r.byIndex[0])

	// A restarted fleet recovers the indexes of its registered oracles.
	restarted := newTestRelay(client, 5, FixedStatus(state.StatusOnTime))
	require.NoError(restarted.Register())
	require.Equal(r.Oracles(), restarted.Oracles())
	require.Len(restarted.byIndex[1], 5)
}

func TestRegisterFailure(t *testing.T) {
	require := require.New(t)

	client := newFakeClient(3)
	client.registerErr = errTest
	r := newTestRelay(client, 2, FixedStatus(state.StatusOnTime))
	err := r.Register()
	require.ErrorIs(err, errTest)
	require.Empty(r.Oracles())
}

func TestRunWithoutOracles(t *testing.T) {
	r := newTestRelay(newFakeClient(3), 0, FixedStatus(state.StatusOnTime))
	require.ErrorIs(t, r.Run(context.Background()), ErrNoOracles)
}

func TestRunStopsAtQuorum(t *testing.T) {
	require := require.New(t)

	client := newFakeClient(3)
	r := newTestRelay(client, 5, FixedStatus(state.StatusLateAirline))
	require.NoError(r.Register())

	client.publish(requestEvent(2))
	close(client.ch)
	require.NoError(r.Run(context.Background()))

	submissions := client.Submissions()
	require.Len(submissions, 3)
	for i, s := range submissions {
		require.Equal(r.byIndex[2][i], s.oracle)
		require.Equal(uint8(2), s.index)
		require.Equal(state.StatusLateAirline, s.status)
	}
	require.True(client.cancelled)
}

func TestRunIgnoresUnheldIndexes(t *testing.T) {
	require := require.New(t)

	client := newFakeClient(3)
	r := newTestRelay(client, 5, FixedStatus(state.StatusOnTime))
	require.NoError(r.Register())

	client.publish(requestEvent(7))
	client.publish(events.Event{Kind: events.OracleReport, Index: 1})
	close(client.ch)
	require.NoError(r.Run(context.Background()))
	require.Empty(client.Submissions())
}

func TestRunContinuesAfterRejection(t *testing.T) {
	require := require.New(t)

	client := newFakeClient(10)
	client.closeAfter = executor.ErrInvalidStatus
	r := newTestRelay(client, 4, FixedStatus(state.StatusOnTime))
	require.NoError(r.Register())

	client.publish(requestEvent(1))
	close(client.ch)
	require.NoError(r.Run(context.Background()))
	require.Len(client.Submissions(), 4)
}

func TestRunAnswersDroppedRequests(t *testing.T) {
	require := require.New(t)

	client := newFakeClient(2)
	r := newTestRelay(client, 3, FixedStatus(state.StatusOnTime))
	require.NoError(r.Register())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error)
	go func() {
		done <- r.Run(ctx)
	}()

	// Four times the subscription capacity, so most requests never reach the
	// channel.
	requests := 4 * cap(client.ch)
	for i := 0; i < requests; i++ {
		client.publish(flightRequestEvent(1, fmt.Sprintf("LX%d", i)))
		client.publish(events.Event{Kind: events.OracleReport, Index: 1})
	}
	require.Eventually(func() bool {
		return len(client.Submissions()) == 2*requests
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(<-done)
	require.Equal([]events.Kind{events.OracleRequestOpened}, client.kinds)
}

func TestRunCancelled(t *testing.T) {
	require := require.New(t)

	client := newFakeClient(3)
	r := newTestRelay(client, 1, FixedStatus(state.StatusOnTime))
	require.NoError(r.Register())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- r.Run(ctx)
	}()
	cancel()
	require.NoError(<-done)
}

func TestOracleAddress(t *testing.T) {
	require := require.New(t)

	require.Equal(OracleAddress(1, 0), OracleAddress(1, 0))
	require.NotEqual(OracleAddress(1, 0), OracleAddress(1, 1))
	require.NotEqual(OracleAddress(1, 0), OracleAddress(2, 0))
	require.NotEqual(ids.ShortEmpty, OracleAddress(0, 0))
}

func TestRandomStatus(t *testing.T) {
	require := require.New(t)

	source := RandomStatus(42)
	seen := make(map[uint8]bool)
	for i := 0; i < 200; i++ {
		status := source(ids.ShortEmpty, testAirline, "LX100", 0)
		require.True(state.ValidStatus(status))
		seen[status] = true
	}
	require.Len(seen, len(statuses))
}
