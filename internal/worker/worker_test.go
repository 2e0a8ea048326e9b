package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roomly/internal/database"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotifier fails the first failures deliveries, then succeeds.
type fakeNotifier struct {
	mu       sync.Mutex
	failures int
	sent     []string
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, text)
	return nil
}

func newTestWorker(t *testing.T, notifier *fakeNotifier, retry RetryPolicy) (*NotifyWorker, *database.DB) {
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewNotifyWorker(db, notifier, retry, &logger), db
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	// Clamped at MaxDelay
	assert.Equal(t, 10*time.Second, policy.NextDelay(10))
	// Attempts below 1 behave like the first
	assert.Equal(t, time.Second, policy.NextDelay(0))
}

func TestEnqueueValidation(t *testing.T) {
	w, _ := newTestWorker(t, &fakeNotifier{}, RetryPolicy{})
	ctx := context.Background()

	assert.Error(t, w.Enqueue(ctx, "", "text"))
	assert.Error(t, w.Enqueue(ctx, "reservation_created", ""))
	assert.NoError(t, w.Enqueue(ctx, "reservation_created", "text"))
}

func TestProcessBatch_Delivers(t *testing.T) {
	notifier := &fakeNotifier{}
	w, db := newTestWorker(t, notifier, RetryPolicy{})
	ctx := context.Background()

	require.NoError(t, w.Enqueue(ctx, "reservation_created", "Room booked"))
	w.processBatch(ctx)

	assert.Equal(t, []string{"Room booked"}, notifier.sent)

	pending, err := db.GetPendingNotifyTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessBatch_SchedulesRetry(t *testing.T) {
	notifier := &fakeNotifier{failures: 1}
	w, db := newTestWorker(t, notifier, RetryPolicy{MaxRetries: 3, InitialDelay: time.Hour})
	ctx := context.Background()

	require.NoError(t, w.Enqueue(ctx, "reservation_created", "Room booked"))
	w.processBatch(ctx)

	// Delivery failed once: not sent, rescheduled in the future
	assert.Empty(t, notifier.sent)

	pending, err := db.GetPendingNotifyTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "retry must not be due yet")
}

func TestProcessBatch_PermanentFailure(t *testing.T) {
	notifier := &fakeNotifier{failures: 100}
	w, db := newTestWorker(t, notifier, RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond})
	ctx := context.Background()

	require.NoError(t, w.Enqueue(ctx, "reservation_created", "Room booked"))

	// Первая попытка -> retry, вторая -> failed
	w.processBatch(ctx)
	time.Sleep(5 * time.Millisecond)
	w.processBatch(ctx)

	pending, err := db.GetPendingNotifyTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.Empty(t, notifier.sent)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	w, _ := newTestWorker(t, &fakeNotifier{}, RetryPolicy{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestRun_WakeShortensLatency(t *testing.T) {
	notifier := &fakeNotifier{}
	w, _ := newTestWorker(t, notifier, RetryPolicy{})
	w.pollInterval = time.Hour // только канал wake может разбудить

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, w.Enqueue(ctx, "reservation_created", "Room booked"))

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.sent) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
