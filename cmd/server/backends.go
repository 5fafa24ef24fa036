package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"propverify/internal/documents/objectstore/memory"
	s3store "propverify/internal/documents/objectstore/s3"
	docservice "propverify/internal/documents/service"
	"propverify/internal/documents/store/dynamo"
	docmemory "propverify/internal/documents/store/memory"
	docpostgres "propverify/internal/documents/store/postgres"
	"propverify/internal/platform/awsutil"
	"propverify/internal/platform/config"
	"propverify/internal/platform/metrics"
	"propverify/internal/platform/postgres"
	"propverify/internal/platform/redis"
	"propverify/internal/statuschannel"
	verification "propverify/internal/verification/service"
	casememory "propverify/internal/verification/store/memory"
	casepostgres "propverify/internal/verification/store/postgres"
	audit "propverify/pkg/platform/audit"
	"propverify/pkg/platform/audit/publisher"
	auditkafka "propverify/pkg/platform/audit/store/kafka"
	auditmemory "propverify/pkg/platform/audit/store/memory"
	auditpostgres "propverify/pkg/platform/audit/store/postgres"
)

const auditBufferSize = 1024

// infra holds the shared connections opened for the selected backends.
// Fields stay nil for backends that are not configured.
type infra struct {
	db     *sql.DB
	redis  *redis.Client
	aws    *awsutil.Clients
	closer []func()
}

func (in *infra) Close() {
	for i := len(in.closer) - 1; i >= 0; i-- {
		in.closer[i]()
	}
}

func openInfra(ctx context.Context, cfg config.Config, logger *slog.Logger) (*infra, error) {
	in := &infra{}
	if cfg.UsesPostgres() {
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		in.closer = append(in.closer, func() { _ = db.Close() })
		if err := postgres.Migrate(db, logger); err != nil {
			in.Close()
			return nil, err
		}
		in.db = db
	}
	if cfg.Redis.URL != "" {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.closer = append(in.closer, func() { _ = client.Close() })
		in.redis = client
	}
	if cfg.Backends.Metadata == config.BackendDynamoDB || cfg.Backends.Objects == config.BackendS3 {
		awsConfig, err := awsutil.Load(ctx, cfg.AWS)
		if err != nil {
			in.Close()
			return nil, err
		}
		clients := awsutil.NewClients(awsConfig, cfg.AWS.Endpoint)
		in.aws = &clients
	}
	return in, nil
}

// Ready pings every open connection.
func (in *infra) Ready(ctx context.Context) error {
	if in.db != nil {
		if err := in.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if in.redis != nil {
		if err := in.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func newMetadataStore(ctx context.Context, cfg config.Config, in *infra, logger *slog.Logger) (docservice.MetadataStore, error) {
	switch cfg.Backends.Metadata {
	case config.BackendPostgres:
		return docpostgres.New(in.db), nil
	case config.BackendDynamoDB:
		store := dynamo.New(in.aws.DynamoDB, cfg.AWS.DocumentTable)
		if cfg.AWS.Endpoint != "" {
			// Local stacks start empty.
			if err := store.EnsureTable(ctx); err != nil {
				return nil, fmt.Errorf("ensure documents table: %w", err)
			}
			logger.InfoContext(ctx, "documents table ready", "table", cfg.AWS.DocumentTable)
		}
		return store, nil
	default:
		return docmemory.New(), nil
	}
}

func newObjectStore(cfg config.Config, in *infra) docservice.ObjectStore {
	if cfg.Backends.Objects == config.BackendS3 {
		return s3store.New(in.aws.S3, cfg.AWS.Bucket)
	}
	return memory.New()
}

// caseStore is the case and status persistence the verification service
// needs. Cases live in Postgres whenever a database is configured.
type caseStore interface {
	verification.CaseStore
	verification.StatusStore
}

func newCaseStore(in *infra) caseStore {
	if in.db != nil {
		return casepostgres.New(in.db)
	}
	return casememory.New()
}

func newAuditPublisher(ctx context.Context, cfg config.Config, in *infra, logger *slog.Logger, m *metrics.Metrics) (*publisher.Publisher, error) {
	var store audit.Store
	switch cfg.Backends.Audit {
	case config.BackendPostgres:
		store = auditpostgres.New(in.db)
	case config.BackendKafka:
		sink, err := auditkafka.New(ctx, auditkafka.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		if err != nil {
			return nil, err
		}
		in.closer = append(in.closer, sink.Close)
		store = sink
	default:
		store = auditmemory.NewInMemoryStore()
	}
	return publisher.NewPublisher(store,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(logger),
		publisher.WithDropRecorder(m),
	), nil
}

func newBroker(cfg config.Config, in *infra, logger *slog.Logger) statuschannel.Broker {
	if cfg.Backends.Status == config.BackendRedis {
		return statuschannel.NewRedisBroker(in.redis, cfg.StatusStream.Channel, logger)
	}
	return statuschannel.NewHub(0)
}
