package api

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeExpirer struct {
	calls atomic.Int32
	n     int
	err   error
}

func (f *fakeExpirer) ProcessExpiredAllocations(context.Context) (int, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestExpiryScheduler_RunsImmediatelyAndStops(t *testing.T) {
	// GIVEN: A scheduler with a long interval
	exp := &fakeExpirer{n: 2}
	s := NewExpiryScheduler(exp, nil)
	s.CheckInterval = time.Hour

	// WHEN: Started
	s.Start()

	// THEN: The first check runs without waiting for a tick
	require.Eventually(t, func() bool { return exp.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	runs, expired := s.Stats()
	assert.Equal(t, 1, runs)
	assert.Equal(t, 2, expired)
}

func TestExpiryScheduler_Disabled(t *testing.T) {
	exp := &fakeExpirer{}
	s := NewExpiryScheduler(exp, nil)
	s.Enabled = false

	s.Start()
	s.Stop()

	assert.Zero(t, exp.calls.Load())
}

func TestExpiryScheduler_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	exp := &fakeExpirer{err: errors.New("database is locked")}
	s := NewExpiryScheduler(exp, zap.New(core))

	s.RunNow()

	runs, _ := s.Stats()
	assert.Zero(t, runs)
	failures := logs.FilterMessage("expiry run failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "scheduler", failures[0].LoggerName)
}
