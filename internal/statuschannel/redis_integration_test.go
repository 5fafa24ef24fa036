//go:build integration

package statuschannel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propverify/internal/platform/redis"
	"propverify/internal/verification/models"
	id "propverify/pkg/domain"
	"propverify/pkg/testutil/containers"
)

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	broker := NewRedisBroker(redis.Wrap(rc.Client), "test-status", quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	updates, err := broker.Subscribe(ctx, user, id.RoleAgent)
	require.NoError(t, err)

	want := record(models.StatusVerified, id.NewCaseID(), t0)
	require.NoError(t, broker.Publish(ctx, want))

	select {
	case got := <-updates:
		assert.Equal(t, want.Status, got.Status)
		assert.Equal(t, *want.CaseID, *got.CaseID)
		assert.True(t, want.LastUpdated.Equal(got.LastUpdated))
	case <-ctx.Done():
		t.Fatal("no status record received")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-updates
		return !ok
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRedisBroker_ChannelEndToEnd(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	broker := NewRedisBroker(redis.Wrap(rc.Client), "test-status", quietLogger())
	ch := New(&fakeSource{}, broker, WithLogger(quietLogger()), WithFallbackTimeout(time.Second))

	got := &collector{}
	unsubscribe, err := ch.Subscribe(context.Background(), user, id.RoleAgent, got.add)
	require.NoError(t, err)
	defer unsubscribe()
	require.Eventually(t, func() bool { return len(got.statuses()) == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, ch.Publish(context.Background(), record(models.StatusPending, id.NewCaseID(), t0.Add(time.Minute))))
	require.Eventually(t, func() bool { return len(got.statuses()) == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []models.Status{models.StatusNotSubmitted, models.StatusPending}, got.statuses())
}
