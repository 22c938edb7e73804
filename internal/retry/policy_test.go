package retry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// TestDefaultPolicy verifies the baseline default values.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, config.RetryBackoffLinear, p.Mode)
	require.Equal(t, time.Second, p.Initial)
	require.Equal(t, 30*time.Second, p.Max)
	require.Equal(t, 2, p.MaxRetries)
	require.NoError(t, p.Validate())
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	require.Equal(t, 2*time.Second, p.Initial)
	require.Equal(t, 2*time.Second, p.Max)
	require.Equal(t, config.RetryBackoffFixed, p.Mode)
	require.Equal(t, 5, p.MaxRetries)

	unknown := NewPolicy("random", 0, 0, -1)
	require.Equal(t, DefaultPolicy(), unknown)
}

// TestDelayModes ensures fixed, linear, exponential behave and respect cap.
func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	fixed := NewPolicy(config.RetryBackoffFixed, 100*ms, 500*ms, 3)
	linear := NewPolicy(config.RetryBackoffLinear, 100*ms, 250*ms, 5)
	exp := NewPolicy(config.RetryBackoffExponential, 100*ms, 500*ms, 5)

	cases := []struct {
		p       Policy
		attempt int
		want    time.Duration
	}{
		{fixed, 0, 0},
		{fixed, 3, 100 * ms},
		{linear, 1, 100 * ms},
		{linear, 2, 200 * ms},
		{linear, 3, 250 * ms},
		{exp, 1, 100 * ms},
		{exp, 3, 400 * ms},
		{exp, 4, 500 * ms},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.p.Delay(c.attempt), "mode %s attempt %d", c.p.Mode, c.attempt)
	}
}

func TestFromRemote(t *testing.T) {
	cfg := config.Default()
	p := FromRemote(cfg.Images.Remote)
	require.Equal(t, 2, p.MaxRetries)
	require.Equal(t, config.RetryBackoffLinear, p.Mode)
}

func TestDoRetriesTransientErrors(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	var retried []int
	err := p.Do(context.Background(), func(int) error {
		calls++
		if calls < 3 {
			return errors.NetworkError("503 from upstream").Build()
		}
		return nil
	}, func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) })

	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []int{1, 2}, retried)
}

func TestDoStopsOnPermanentErrors(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 5)

	calls := 0
	err := p.Do(context.Background(), func(int) error {
		calls++
		return errors.AuthError("bad key").Build()
	}, nil)
	require.Error(t, err)
	require.Equal(t, 1, calls)

	calls = 0
	err = p.Do(context.Background(), func(int) error {
		calls++
		return stderrors.New("plain")
	}, nil)
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestDoExhaustsBudget(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(context.Background(), func(int) error {
		calls++
		return errors.NetworkError("timeout").Build()
	}, nil)
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	require.Equal(t, 3, calls)
}

func TestDoHonoursCancellation(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Hour, time.Hour, 3)
	ctx, cancel := context.WithCancel(context.Background())
	err := p.Do(ctx, func(int) error {
		cancel()
		return errors.NetworkError("timeout").Build()
	}, nil)
	require.ErrorIs(t, err, context.Canceled)
}
