//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "propverify/pkg/platform/audit"
	"propverify/pkg/testutil/containers"
)

func TestStore_ProducesKeyedRecords(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	store, err := New(ctx, Config{Brokers: []string{rp.Broker}, Topic: "propverify.audit.test"})
	require.NoError(t, err)
	defer store.Close()

	// A second New against the same topic must tolerate the existing topic.
	again, err := New(ctx, Config{Brokers: []string{rp.Broker}, Topic: "propverify.audit.test"})
	require.NoError(t, err)
	again.Close()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, audit.Event{
		Timestamp: at,
		UserID:    "agent-1",
		Role:      "agent",
		Subject:   "case-1",
		Action:    string(audit.EventVerificationSubmitted),
		Decision:  "pending",
		RequestID: "req-1",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics("propverify.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "agent-1", string(rec.Key))
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, string(audit.EventVerificationSubmitted), string(rec.Headers[0].Value))

	var msg message
	require.NoError(t, json.Unmarshal(rec.Value, &msg))
	assert.Equal(t, string(audit.CategoryCompliance), msg.Category)
	assert.Equal(t, "case-1", msg.Subject)
	assert.True(t, at.Equal(msg.Timestamp))
}
