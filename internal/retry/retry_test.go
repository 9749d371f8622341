package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	errFlaky := errors.New("flaky")

	tests := []struct {
		name      string
		policy    Policy
		failures  int
		permanent bool
		wantErr   bool
		wantCalls int
	}{
		{"first try", Policy{MaxAttempts: 3, Delay: time.Millisecond}, 0, false, false, 1},
		{"recovers", Policy{MaxAttempts: 3, Delay: time.Millisecond}, 2, false, false, 3},
		{"exhausted", Policy{MaxAttempts: 3, Delay: time.Millisecond}, 5, false, true, 3},
		{"single attempt", Policy{MaxAttempts: 1, Delay: time.Millisecond}, 5, false, true, 1},
		{"zero attempts means one", Policy{}, 5, false, true, 1},
		{"permanent stops", Policy{MaxAttempts: 3, Delay: time.Millisecond}, 5, true, true, 1},
		{"exponential", Policy{MaxAttempts: 4, Delay: time.Millisecond, Exponential: true, MaxDelay: 2 * time.Millisecond}, 3, false, false, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			var notified []int
			err := tt.policy.Do(context.Background(), func(ctx context.Context) error {
				calls++
				if calls <= tt.failures {
					if tt.permanent {
						return Permanent(errFlaky)
					}
					return errFlaky
				}
				return nil
			}, func(err error, attempt int, wait time.Duration) {
				notified = append(notified, attempt)
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errFlaky)
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, notified, tt.wantCalls-1)
		})
	}
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Policy{MaxAttempts: 10, Delay: time.Hour}.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
