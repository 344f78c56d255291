package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testService struct {
	*BaseService

	started int
	stopped int
	failing bool
}

func newTestService() *testService {
	ts := &testService{}
	ts.BaseService = NewBaseService(nil, "TestService", ts)
	return ts
}

func (ts *testService) OnStart(context.Context) error {
	if ts.failing {
		return errors.New("boom")
	}
	ts.started++
	return nil
}

func (ts *testService) OnStop() { ts.stopped++ }

func TestBaseServiceWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts := newTestService()
	require.NoError(t, ts.Start(ctx))

	waitFinished := make(chan struct{})
	go func() {
		ts.Wait()
		close(waitFinished)
	}()

	go ts.Stop() //nolint:errcheck // ignore for tests

	select {
	case <-waitFinished:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected Wait() to finish within 100 ms.")
	}
	require.Equal(t, 1, ts.started)
	require.Equal(t, 1, ts.stopped)
}

func TestBaseServiceLifecycleErrors(t *testing.T) {
	ctx := context.Background()

	ts := newTestService()
	require.ErrorIs(t, ts.Stop(), ErrNotStarted)
	require.NoError(t, ts.Start(ctx))
	require.ErrorIs(t, ts.Start(ctx), ErrAlreadyStarted)
	require.True(t, ts.IsRunning())
	require.NoError(t, ts.Stop())
	require.ErrorIs(t, ts.Stop(), ErrAlreadyStopped)
	require.False(t, ts.IsRunning())
}

func TestBaseServiceFailedStartCanRetry(t *testing.T) {
	ts := newTestService()
	ts.failing = true
	require.Error(t, ts.Start(context.Background()))
	require.False(t, ts.IsRunning())

	ts.failing = false
	require.NoError(t, ts.Start(context.Background()))
	require.True(t, ts.IsRunning())
	require.NoError(t, ts.Stop())
}

func TestBaseServiceStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ts := newTestService()
	require.NoError(t, ts.Start(ctx))
	cancel()

	select {
	case <-ts.Quit():
	case <-time.After(time.Second):
		t.Fatal("service did not stop after context cancel")
	}
	require.False(t, ts.IsRunning())
}
