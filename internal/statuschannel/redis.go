package statuschannel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"propverify/internal/platform/redis"
	"propverify/internal/verification/models"
	id "propverify/pkg/domain"
)

// RedisBroker carries status records over Redis pub/sub, one channel per
// (user, role), so every replica's subscribers see every change.
type RedisBroker struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisBroker(client *redis.Client, prefix string, logger *slog.Logger) *RedisBroker {
	if prefix == "" {
		prefix = "verification-status"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBroker{client: client, prefix: prefix, logger: logger}
}

func (b *RedisBroker) channel(user id.UserID, role id.Role) string {
	return b.prefix + ":" + role.String() + ":" + user.String()
}

func (b *RedisBroker) Publish(ctx context.Context, rec models.StatusRecord) error {
	return b.client.PublishJSON(ctx, b.channel(rec.UserID, rec.Role), rec)
}

// Subscribe confirms the subscription with Redis before returning. The
// channel closes on the first receive error so the caller refetches instead
// of silently missing records across a reconnect.
func (b *RedisBroker) Subscribe(ctx context.Context, user id.UserID, role id.Role) (<-chan models.StatusRecord, error) {
	name := b.channel(user, role)
	ps := b.client.Subscribe(ctx, name)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", name, err)
	}

	out := make(chan models.StatusRecord)
	go func() {
		defer close(out)
		defer ps.Close()
		for {
			msg, err := ps.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					b.logger.WarnContext(ctx, "status subscription lost", "channel", name, "error", err)
				}
				return
			}
			var rec models.StatusRecord
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				b.logger.WarnContext(ctx, "discarding malformed status record", "channel", name, "error", err)
				continue
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
