//go:build integration

package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propverify/internal/platform/redis"
	id "propverify/pkg/domain"
	"propverify/pkg/platform/sentinel"
	"propverify/pkg/testutil/containers"
)

func TestRedisSessions(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	store := NewRedisSessions(redis.Wrap(rc.Client), "")

	require.NoError(t, rc.Client.Set(ctx, "session:abc", `{"user_id":"agent-7","reviewer":true}`, time.Minute).Err())

	sess, err := store.Lookup(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, id.UserID("agent-7"), sess.UserID)
	assert.True(t, sess.Reviewer)

	_, err = store.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
