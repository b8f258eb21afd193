package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/reconcile"
	"github.com/trezcool/presence/tests"
)

// fakeAutoAbsent records the dates it is asked to reconcile.
type fakeAutoAbsent struct {
	mu    sync.Mutex
	dates []time.Time
	err   error
}

func (f *fakeAutoAbsent) RunAutoAbsent(_ context.Context, date time.Time) (reconcile.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dates = append(f.dates, date)
	return reconcile.Report{Date: date, NewlyAbsent: 30}, f.err
}

func (f *fakeAutoAbsent) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dates)
}

func newTestRunner(svc autoAbsentRunner, interval time.Duration) *runner {
	return newRunner(svc, interval, testutil.NewLogger(core.NewTestConfig()))
}

func TestRunner_runOnce(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAutoAbsent{}
	r := newTestRunner(fake, time.Minute)

	rep, err := r.lastRun()
	assert.Nil(t, rep)
	assert.NoError(t, err)

	_, err = r.runOnce(ctx, testutil.Monday)
	require.NoError(t, err)
	rep, err = r.lastRun()
	require.NotNil(t, rep)
	assert.NoError(t, err)
	assert.Equal(t, 30, rep.NewlyAbsent)

	fake.err = errors.Wrap(&core.BatchError{Completed: 20, Failed: 10}, "auto-absent")
	_, err = r.runOnce(ctx, testutil.Monday)
	assert.Error(t, err)
	_, err = r.lastRun()
	_, partial := core.AsBatchError(err)
	assert.True(t, partial)
}

func TestRunner_start(t *testing.T) {
	fake := &fakeAutoAbsent{}
	r := newTestRunner(fake, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.start(ctx)
	}()

	require.Eventually(t, func() bool { return fake.calls() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	for _, date := range fake.dates {
		assert.True(t, date.IsZero(), "scheduled runs reconcile today")
	}
}
