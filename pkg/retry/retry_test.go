package retry

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-stakepool/pkg/retry/backoff"
)

func TestRetrier(t *testing.T) {
	errRateLimited := errors.New("rate limited")
	r := NewRetrier(Limit(4), RetriableErrors(errRateLimited))

	attempts, err := r.Retry(func() error { return nil })
	require.NoError(t, err)
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(func() error { return errors.New("account not found") })
	assert.EqualError(t, err, "account not found")
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(func() error { return errors.Wrap(errRateLimited, "getAccountInfo") })
	assert.True(t, errors.Is(err, errRateLimited))
	assert.EqualValues(t, 4, attempts)

	var calls int
	attempts, err = r.Retry(func() error {
		calls++
		if calls < 3 {
			return errRateLimited
		}
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, attempts)
}

func TestLimit(t *testing.T) {
	strategy := Limit(2)
	assert.True(t, strategy(1, errors.New("test")))
	assert.False(t, strategy(2, errors.New("test")))
}

func TestNotify(t *testing.T) {
	var seen []uint
	attempts, err := Retry(
		func() error { return errors.New("unavailable") },
		Limit(3),
		Notify(func(attempts uint, err error) { seen = append(seen, attempts) }),
	)
	assert.Error(t, err)
	assert.EqualValues(t, 3, attempts)

	// The final attempt is rejected by Limit before Notify runs
	assert.Equal(t, []uint{1, 2}, seen)
}

func TestBackoff(t *testing.T) {
	ts := &testSleeper{}
	sleeperImpl = ts
	defer func() { sleeperImpl = &realSleeper{} }()

	strategy := Backoff(backoff.BinaryExponential(100*time.Millisecond), 500*time.Millisecond)
	for i := uint(1); i <= 5; i++ {
		assert.True(t, strategy(i, errors.New("test-error")))
	}

	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
	}, ts.sleepTimes)
}

func TestBackoffWithJitter(t *testing.T) {
	ts := &testSleeper{}
	sleeperImpl = ts
	defer func() { sleeperImpl = &realSleeper{} }()

	delay := time.Millisecond
	strategy := BackoffWithJitter(backoff.Constant(delay), delay, 0.1)
	for i := 0; i < 10000; i++ {
		assert.True(t, strategy(1, errors.New("err")))
	}

	for _, d := range ts.sleepTimes {
		assert.InDelta(t, float64(delay), float64(d), 0.1*float64(delay)+1)
	}
	assert.InDelta(t, float64(delay), float64(ts.Mean()), 0.01*float64(delay))
}

type testSleeper struct {
	sleepTimes []time.Duration
}

func (t *testSleeper) Sleep(d time.Duration) {
	t.sleepTimes = append(t.sleepTimes, d)
}

func (t *testSleeper) Mean() time.Duration {
	var total float64
	for _, d := range t.sleepTimes {
		total += float64(d)
	}
	return time.Duration(math.Round(total / float64(len(t.sleepTimes))))
}
