package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

// ==========================
// Retry Tests
// ==========================

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var delays []time.Duration

	err := Retry(context.Background(), fastRetry, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, func(attempt int, delay time.Duration, err error) {
		delays = append(delays, delay)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestRetry_GivesUp(t *testing.T) {
	boom := errors.New("unavailable")
	calls := 0

	err := Retry(context.Background(), fastRetry, func(ctx context.Context) error {
		calls++
		return boom
	}, nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, calls)
}

func TestRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour}

	err := Retry(ctx, cfg, func(ctx context.Context) error {
		cancel()
		return errors.New("timeout")
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}

// ==========================
// Worker Tests
// ==========================

func TestInstrument_CallsHandler(t *testing.T) {
	called := false
	handler := Instrument("lead.test", func(client worker.JobClient, job entities.Job) {
		called = true
	})

	handler(nil, entities.Job{})
	assert.True(t, called)
}
