package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, ModeLinear, p.Mode)
	require.Equal(t, 50*time.Millisecond, p.Initial)
	require.Equal(t, time.Second, p.Max)
	require.Equal(t, 3, p.MaxRetries)
	require.NoError(t, p.Validate())
}

// Initial above max is clamped.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(ModeFixed, 5*time.Second, 2*time.Second, 5)
	require.Equal(t, 2*time.Second, p.Initial)
	require.Equal(t, 2*time.Second, p.Max)
	require.Equal(t, ModeFixed, p.Mode)
	require.Equal(t, 5, p.MaxRetries)

	require.Equal(t, 3, NewPolicy("", 0, 0, 0).MaxRetries)
	require.Equal(t, 0, NewPolicy("", 0, 0, -1).MaxRetries)
	require.Equal(t, ModeLinear, NewPolicy("weird", 0, 0, 0).Mode)
}

func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name   string
		policy Policy
		want   []time.Duration // attempts 1..n
	}{
		{"fixed", NewPolicy(ModeFixed, 100*ms, 500*ms, 3), []time.Duration{100 * ms, 100 * ms, 100 * ms}},
		{"linear", NewPolicy(ModeLinear, 100*ms, 250*ms, 5), []time.Duration{100 * ms, 200 * ms, 250 * ms, 250 * ms}},
		{"exponential", NewPolicy(ModeExponential, 50*ms, 160*ms, 5), []time.Duration{50 * ms, 100 * ms, 160 * ms, 160 * ms}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for i, want := range tc.want {
				require.Equal(t, want, tc.policy.Delay(i+1), "attempt %d", i+1)
			}
		})
	}

	p := NewPolicy(ModeLinear, 10*ms, 20*ms, 1)
	require.Zero(t, p.Delay(0))
	require.Zero(t, p.Delay(-1))
}

func TestValidate(t *testing.T) {
	require.Error(t, Policy{Mode: ModeLinear, Initial: 0, Max: time.Second}.Validate())
	require.Error(t, Policy{Mode: ModeLinear, Initial: time.Second, Max: 0}.Validate())
	require.Error(t, Policy{Mode: ModeLinear, Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
}

var errBusy = errors.New("busy")

func always(error) bool { return true }

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 3), always, func() error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	err := Do(context.Background(), NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 2), always, func() error {
		calls++
		return errBusy
	})
	require.ErrorIs(t, err, errBusy)
	require.Equal(t, 3, calls)
}

func TestDo_PermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultPolicy(), func(error) bool { return false }, func() error {
		calls++
		return errBusy
	})
	require.ErrorIs(t, err, errBusy)
	require.Equal(t, 1, calls)
}

func TestDo_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, NewPolicy(ModeFixed, time.Hour, time.Hour, 5), always, func() error {
		calls++
		return errBusy
	})
	require.ErrorIs(t, err, errBusy)
	require.Equal(t, 1, calls)
}
