// Package kafka publishes audit events to a Kafka topic with franz-go.
// Events are keyed by user id so one user's trail stays ordered within a
// partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "propverify/pkg/platform/audit"
)

// Config configures the producer.
type Config struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
}

// Store is a write-only audit sink.
type Store struct {
	client *kgo.Client
	topic  string
}

// message is the JSON value written per event.
type message struct {
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Action    string    `json:"action"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
}

// New connects a producer and makes sure the topic exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka audit sink: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka audit sink: no topic configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := ensureTopic(ctx, client, cfg); err != nil {
		client.Close()
		return nil, err
	}
	return &Store{client: client, topic: cfg.Topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, cfg Config) error {
	partitions := cfg.Partitions
	if partitions <= 0 {
		partitions = 1
	}
	replication := cfg.ReplicationFactor
	if replication <= 0 {
		replication = 1
	}
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, partitions, replication, nil, cfg.Topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create audit topic %s: %w", cfg.Topic, resp.Err)
	}
	return nil
}

// Append produces one record and waits for the broker ack.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(message{
		Category:  string(audit.AuditEvent(event.Action).Category()),
		Timestamp: event.Timestamp,
		UserID:    string(event.UserID),
		Role:      event.Role,
		Subject:   event.Subject,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.UserID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes pending records and closes the client.
func (s *Store) Close() {
	s.client.Close()
}
