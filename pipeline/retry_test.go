package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSleeper records requested delays without actually sleeping.
type fakeSleeper struct {
	delays []time.Duration
	err    error
}

func (s *fakeSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return s.err
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

	calls := 0
	err := policy.Execute(context.Background(), func() error {
		calls++
		return nil
	}, sleeper.sleep)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

func TestRetryTransientEventualSuccess(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

	calls := 0
	err := policy.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return MarkTransient(errors.New("rate limited"))
		}
		return nil
	}, sleeper.sleep)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	// Exponential growth: base, then doubled.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.delays)
}

func TestRetryExhaustionReturnsLastError(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

	sentinel := errors.New("still down")
	calls := 0
	err := policy.Execute(context.Background(), func() error {
		calls++
		return MarkTransient(sentinel)
	}, sleeper.sleep)

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
	// No sleep after the final attempt.
	assert.Len(t, sleeper.delays, 2)
}

func TestRetryNonTransientFailsFast(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second}

	sentinel := errors.New("bad request")
	calls := 0
	err := policy.Execute(context.Background(), func() error {
		calls++
		return sentinel
	}, sleeper.sleep)

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

func TestRetryContextCancelled(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := policy.Execute(ctx, func() error {
		calls++
		return nil
	}, (&fakeSleeper{}).sleep)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestRetrySleepErrorAborts(t *testing.T) {
	sleeper := &fakeSleeper{err: context.Canceled}
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

	calls := 0
	err := policy.Execute(context.Background(), func() error {
		calls++
		return MarkTransient(errors.New("blip"))
	}, sleeper.sleep)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryInvalidPolicy(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 0}
	err := policy.Execute(context.Background(), func() error { return nil }, nil)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestDelayCapAndJitter(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 4 * time.Second}

	assert.Equal(t, time.Second, policy.Delay(1))
	assert.Equal(t, 2*time.Second, policy.Delay(2))
	assert.Equal(t, 4*time.Second, policy.Delay(3))
	// Capped from here on.
	assert.Equal(t, 4*time.Second, policy.Delay(7))

	jittered := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Jitter: 0.5}
	for i := 0; i < 20; i++ {
		d := jittered.Delay(1)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(MarkTransient(errors.New("x"))))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(errors.New("x")))
	assert.False(t, IsTransient(nil))

	// Wrapping preserves the mark.
	wrapped := MarkTransient(errors.New("inner"))
	assert.True(t, IsTransient(errors.Join(errors.New("outer"), wrapped)))
}

func TestMarkTransientNil(t *testing.T) {
	assert.Nil(t, MarkTransient(nil))
}
