package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mpozdeev/notesync/internal/errs"
)

func newTestSession(d *fakeDialer) *Session {
	return NewSession(Config{
		URL:        "amqp://test",
		Exchange:   "notes_events",
		RetryDelay: 5 * time.Millisecond,
		Dial:       d.dial,
	}, zap.NewNop())
}

func TestSession_ConnectsAndDeclaresExchange(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSession(d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.State() == StateConnected }, time.Second, time.Millisecond)
	require.Equal(t, "notes_events", d.last().ch.exchange)

	ch, err := s.Channel()
	require.NoError(t, err)
	require.NotNil(t, ch)
}

func TestSession_RetriesWhileBrokerDown(t *testing.T) {
	d := &fakeDialer{}
	d.setDown(true)
	s := newTestSession(d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	// Stays out of Connected and fails publish attempts fast.
	time.Sleep(25 * time.Millisecond)
	require.NotEqual(t, StateConnected, s.State())
	_, err := s.Channel()
	require.ErrorIs(t, err, errs.ErrNotConnected)

	// Broker comes back within one retry interval.
	d.setDown(false)
	require.Eventually(t, func() bool { return s.State() == StateConnected }, time.Second, time.Millisecond)
}

func TestSession_ReconnectsAfterLoss(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSession(d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.State() == StateConnected }, time.Second, time.Millisecond)
	first := d.last()

	first.lose()
	require.Eventually(t, func() bool {
		return s.State() == StateConnected && d.dials() == 2
	}, time.Second, time.Millisecond)
	require.NotSame(t, first, d.last())
}

func TestSession_WaitReadyUnblocksOnConnect(t *testing.T) {
	d := &fakeDialer{}
	d.setDown(true)
	s := newTestSession(d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	got := make(chan error, 1)
	go func() {
		_, err := s.WaitReady(ctx)
		got <- err
	}()

	select {
	case <-got:
		t.Fatal("WaitReady returned while disconnected")
	case <-time.After(20 * time.Millisecond):
	}

	d.setDown(false)
	select {
	case err := <-got:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitReady did not unblock after connect")
	}
}

func TestSession_RunStopsOnCancel(t *testing.T) {
	d := &fakeDialer{}
	d.setDown(true)
	s := newTestSession(d)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
