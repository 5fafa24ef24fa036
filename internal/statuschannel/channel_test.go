package statuschannel

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propverify/internal/verification/models"
	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/circuit"
	"propverify/pkg/platform/sentinel"
)

const user id.UserID = "agent-1"

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu    sync.Mutex
	rec   models.StatusRecord
	err   error
	block chan struct{}
	calls atomic.Int32
}

func (f *fakeSource) Status(ctx context.Context, u id.UserID, r id.Role) (models.StatusRecord, error) {
	f.calls.Add(1)
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return models.StatusRecord{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.StatusRecord{}, f.err
	}
	if f.rec.Status == "" {
		return models.DefaultStatus(u, r, t0), nil
	}
	return f.rec, nil
}

func (f *fakeSource) set(rec models.StatusRecord, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec, f.err = rec, err
}

type collector struct {
	mu   sync.Mutex
	recs []models.StatusRecord
}

func (c *collector) add(rec models.StatusRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
}

func (c *collector) statuses() []models.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Status, len(c.recs))
	for i, r := range c.recs {
		out[i] = r.Status
	}
	return out
}

func record(status models.Status, caseID id.CaseID, at time.Time) models.StatusRecord {
	return models.StatusRecord{UserID: user, Role: id.RoleAgent, Status: status, CaseID: &caseID, LastUpdated: at}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newChannel(source StatusSource, hub *Hub, opts ...Option) *Channel {
	opts = append([]Option{
		WithLogger(quietLogger()),
		WithFallbackTimeout(100 * time.Millisecond),
		WithReconnectDelay(10 * time.Millisecond),
	}, opts...)
	return New(source, hub, opts...)
}

func TestSubscribe_CurrentThenChangesInOrder(t *testing.T) {
	hub := NewHub(16)
	source := &fakeSource{}
	ch := newChannel(source, hub)

	got := &collector{}
	unsubscribe, err := ch.Subscribe(context.Background(), user, id.RoleAgent, got.add)
	require.NoError(t, err)
	defer unsubscribe()

	require.Eventually(t, func() bool { return len(got.statuses()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.StatusNotSubmitted, got.statuses()[0])

	caseID := id.NewCaseID()
	require.NoError(t, ch.Publish(context.Background(), record(models.StatusPending, caseID, t0.Add(time.Minute))))
	require.NoError(t, ch.Publish(context.Background(), record(models.StatusRejected, caseID, t0.Add(2*time.Minute))))
	require.NoError(t, ch.Publish(context.Background(), record(models.StatusVerified, caseID, t0.Add(3*time.Minute))))

	require.Eventually(t, func() bool { return len(got.statuses()) == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []models.Status{
		models.StatusNotSubmitted, models.StatusPending, models.StatusRejected, models.StatusVerified,
	}, got.statuses())
}

func TestSubscribe_OtherPairsAreIsolated(t *testing.T) {
	hub := NewHub(16)
	ch := newChannel(&fakeSource{}, hub)

	got := &collector{}
	unsubscribe, err := ch.Subscribe(context.Background(), user, id.RoleAgent, got.add)
	require.NoError(t, err)
	defer unsubscribe()
	require.Eventually(t, func() bool { return len(got.statuses()) == 1 }, time.Second, 5*time.Millisecond)

	other := record(models.StatusVerified, id.NewCaseID(), t0.Add(time.Minute))
	other.Role = id.RoleDeveloper
	require.NoError(t, ch.Publish(context.Background(), other))

	time.Sleep(30 * time.Millisecond)
	assert.Len(t, got.statuses(), 1)
}

func TestSubscribe_StoreFailureDeliversDefaultAndStaysAlive(t *testing.T) {
	hub := NewHub(16)
	source := &fakeSource{}
	source.set(models.StatusRecord{}, sentinel.ErrUnavailable)
	ch := newChannel(source, hub)

	got := &collector{}
	unsubscribe, err := ch.Subscribe(context.Background(), user, id.RoleAgent, got.add)
	require.NoError(t, err)
	defer unsubscribe()

	require.Eventually(t, func() bool { return len(got.statuses()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.StatusNotSubmitted, got.statuses()[0])

	require.NoError(t, ch.Publish(context.Background(), record(models.StatusVerified, id.NewCaseID(), t0)))
	require.Eventually(t, func() bool { return len(got.statuses()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.StatusVerified, got.statuses()[1])
}

func TestSubscribe_RereadsStoreAfterFallback(t *testing.T) {
	hub := NewHub(16)
	source := &fakeSource{}
	source.set(models.StatusRecord{}, sentinel.ErrUnavailable)
	ch := newChannel(source, hub)

	got := &collector{}
	unsubscribe, err := ch.Subscribe(context.Background(), user, id.RoleAgent, got.add)
	require.NoError(t, err)
	defer unsubscribe()
	require.Eventually(t, func() bool { return len(got.statuses()) == 1 }, time.Second, 5*time.Millisecond)

	// Verified is terminal, so no further change will be published.
	source.set(record(models.StatusVerified, id.NewCaseID(), t0), nil)

	require.Eventually(t, func() bool { return len(got.statuses()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []models.Status{models.StatusNotSubmitted, models.StatusVerified}, got.statuses())

	calls := source.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, source.calls.Load(), "reads stop once the store answered")
}

func TestSubscribe_SlowStoreFallsBackWithinTimeout(t *testing.T) {
	hub := NewHub(16)
	source := &fakeSource{block: make(chan struct{})}
	defer close(source.block)
	ch := newChannel(source, hub)

	got := &collector{}
	start := time.Now()
	unsubscribe, err := ch.Subscribe(context.Background(), user, id.RoleAgent, got.add)
	require.NoError(t, err)
	defer unsubscribe()

	require.Eventually(t, func() bool { return len(got.statuses()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, models.StatusNotSubmitted, got.statuses()[0])
}

func TestSubscribe_RefetchesAfterBrokerDisconnect(t *testing.T) {
	hub := NewHub(16)
	caseID := id.NewCaseID()
	source := &fakeSource{}
	source.set(record(models.StatusPending, caseID, t0), nil)
	ch := newChannel(source, hub)

	got := &collector{}
	unsubscribe, err := ch.Subscribe(context.Background(), user, id.RoleAgent, got.add)
	require.NoError(t, err)
	defer unsubscribe()
	require.Eventually(t, func() bool { return len(got.statuses()) == 1 }, time.Second, 5*time.Millisecond)

	// The change is never published, so only a refetch can see it.
	source.set(record(models.StatusVerified, caseID, t0.Add(time.Minute)), nil)
	hub.Disconnect()

	require.Eventually(t, func() bool { return len(got.statuses()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []models.Status{models.StatusPending, models.StatusVerified}, got.statuses())
	require.Eventually(t, func() bool { return hub.Subscribers(user, id.RoleAgent) == 1 }, time.Second, 5*time.Millisecond)
}

func TestSubscribe_SkipsStaleRecords(t *testing.T) {
	hub := NewHub(16)
	caseID := id.NewCaseID()
	source := &fakeSource{}
	source.set(record(models.StatusVerified, caseID, t0.Add(time.Minute)), nil)
	ch := newChannel(source, hub)

	got := &collector{}
	unsubscribe, err := ch.Subscribe(context.Background(), user, id.RoleAgent, got.add)
	require.NoError(t, err)
	defer unsubscribe()
	require.Eventually(t, func() bool { return len(got.statuses()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, ch.Publish(context.Background(), record(models.StatusPending, caseID, t0)))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, []models.Status{models.StatusVerified}, got.statuses())
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	hub := NewHub(16)
	ch := newChannel(&fakeSource{}, hub)

	got := &collector{}
	unsubscribe, err := ch.Subscribe(context.Background(), user, id.RoleAgent, got.add)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(got.statuses()) == 1 }, time.Second, 5*time.Millisecond)

	unsubscribe()
	unsubscribe()
	require.Eventually(t, func() bool { return hub.Subscribers(user, id.RoleAgent) == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, ch.Publish(context.Background(), record(models.StatusVerified, id.NewCaseID(), t0)))
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, got.statuses(), 1)
}

func TestSubscribe_ConcurrentReadsShareOneStoreCall(t *testing.T) {
	hub := NewHub(16)
	source := &fakeSource{block: make(chan struct{})}
	ch := newChannel(source, hub, WithFallbackTimeout(2*time.Second))

	const subscribers = 5
	collectors := make([]*collector, subscribers)
	for i := range collectors {
		collectors[i] = &collector{}
		unsubscribe, err := ch.Subscribe(context.Background(), user, id.RoleAgent, collectors[i].add)
		require.NoError(t, err)
		defer unsubscribe()
	}
	require.Eventually(t, func() bool { return hub.Subscribers(user, id.RoleAgent) == subscribers }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(source.block)

	for _, c := range collectors {
		require.Eventually(t, func() bool { return len(c.statuses()) == 1 }, time.Second, 5*time.Millisecond)
	}
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestSubscribe_OpenBreakerSkipsStore(t *testing.T) {
	hub := NewHub(16)
	source := &fakeSource{}
	source.set(models.StatusRecord{}, sentinel.ErrUnavailable)
	breaker := circuit.New("status-store", circuit.WithFailureThreshold(1))
	ch := newChannel(source, hub, WithBreaker(breaker))

	for range 3 {
		got := &collector{}
		unsubscribe, err := ch.Subscribe(context.Background(), user, id.RoleAgent, got.add)
		require.NoError(t, err)
		require.Eventually(t, func() bool { return len(got.statuses()) == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, models.StatusNotSubmitted, got.statuses()[0])
		unsubscribe()
	}
	assert.True(t, breaker.IsOpen())
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestSubscribe_Validation(t *testing.T) {
	ch := newChannel(&fakeSource{}, NewHub(1))
	noop := func(models.StatusRecord) {}

	_, err := ch.Subscribe(context.Background(), "", id.RoleAgent, noop)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = ch.Subscribe(context.Background(), user, "buyer", noop)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = ch.Subscribe(context.Background(), user, id.RoleAgent, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := hub.Subscribe(ctx, user, id.RoleAgent)
	require.NoError(t, err)
	require.NoError(t, hub.Publish(ctx, record(models.StatusPending, id.NewCaseID(), t0)))
	require.NoError(t, hub.Publish(ctx, record(models.StatusVerified, id.NewCaseID(), t0)))

	first, ok := <-updates
	require.True(t, ok)
	assert.Equal(t, models.StatusPending, first.Status)
	_, ok = <-updates
	assert.False(t, ok)
	assert.Zero(t, hub.Subscribers(user, id.RoleAgent))

	require.NoError(t, hub.Close())
	_, err = hub.Subscribe(ctx, user, id.RoleAgent)
	assert.ErrorIs(t, err, ErrBrokerClosed)
}

func TestHub_DroppedSubscriberReleasesWatcher(t *testing.T) {
	hub := NewHub(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	before := runtime.NumGoroutine()

	for range 10 {
		updates, err := hub.Subscribe(ctx, user, id.RoleAgent)
		require.NoError(t, err)
		require.NoError(t, hub.Publish(ctx, record(models.StatusPending, id.NewCaseID(), t0)))
		require.NoError(t, hub.Publish(ctx, record(models.StatusVerified, id.NewCaseID(), t0)))
		for range updates {
		}
	}

	// ctx is still live, so only the drop can have released the watchers.
	require.Eventually(t, func() bool { return runtime.NumGoroutine() <= before }, time.Second, 5*time.Millisecond)
}
