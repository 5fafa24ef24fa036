package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend selectors.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
	BackendS3       = "s3"
	BackendRedis    = "redis"
	BackendKafka    = "kafka"
)

// Decision policies.
const (
	PolicyAutoApprove  = "auto_approve"
	PolicyManualReview = "manual_review"
)

// Config is the full runtime configuration, built once in main.
type Config struct {
	Server       Server
	Uploads      Uploads
	Verification Verification
	Backends     Backends
	Postgres     PostgresConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	AWS          AWSConfig
	StatusStream StatusStreamConfig
	Identity     IdentityConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration
	// AllowedOrigins are host patterns browsers may open status streams from.
	AllowedOrigins []string
}

// Uploads bounds document uploads.
type Uploads struct {
	MaxBytes       int64
	Timeout        time.Duration
	CleanupTimeout time.Duration
}

// Verification configures case handling.
type Verification struct {
	DecisionPolicy string
	StoreTimeout   time.Duration
	LockShards     int
}

// Backends selects the adapter behind each port.
type Backends struct {
	Metadata string
	Objects  string
	Status   string
	Audit    string
}

type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds go-redis connection and pool settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type AWSConfig struct {
	Region        string
	Bucket        string
	DocumentTable string
	// Endpoint overrides the AWS endpoint, e.g. LocalStack in development.
	Endpoint string
}

type StatusStreamConfig struct {
	// FallbackTimeout bounds how long a subscriber waits for the initial
	// status before receiving the not_submitted default.
	FallbackTimeout time.Duration
	Channel         string
}

type IdentityConfig struct {
	JWTSigningKey    string
	JWTIssuer        string
	SessionCacheSize int
	SessionCacheTTL  time.Duration
	AllowAnonymous   bool
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envString("PROPVERIFY_ADDR", ":8080"),
			LogLevel:        envString("LOG_LEVEL", "info"),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  envList("WS_ALLOWED_ORIGINS"),
		},
		Uploads: Uploads{
			MaxBytes:       envInt64("UPLOAD_MAX_BYTES", 10*1024*1024),
			Timeout:        envDuration("UPLOAD_TIMEOUT", 60*time.Second),
			CleanupTimeout: envDuration("UPLOAD_CLEANUP_TIMEOUT", 10*time.Second),
		},
		Verification: Verification{
			DecisionPolicy: envString("DECISION_POLICY", PolicyAutoApprove),
			StoreTimeout:   envDuration("STORE_TIMEOUT", 5*time.Second),
			LockShards:     envInt("LOCK_SHARDS", 32),
		},
		Backends: Backends{
			Metadata: envString("METADATA_BACKEND", BackendMemory),
			Objects:  envString("OBJECT_BACKEND", BackendMemory),
			Status:   envString("STATUS_BROKER", BackendMemory),
			Audit:    envString("AUDIT_SINK", BackendMemory),
		},
		Postgres: PostgresConfig{
			DSN:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: envInt("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 20),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envString("KAFKA_AUDIT_TOPIC", "propverify.audit"),
		},
		AWS: AWSConfig{
			Region:        envString("AWS_REGION", "ap-southeast-1"),
			Bucket:        os.Getenv("DOCUMENTS_BUCKET"),
			DocumentTable: os.Getenv("DOCUMENTS_TABLE"),
			Endpoint:      os.Getenv("AWS_ENDPOINT_URL"),
		},
		StatusStream: StatusStreamConfig{
			FallbackTimeout: envDuration("STATUS_FALLBACK_TIMEOUT", 5*time.Second),
			Channel:         envString("STATUS_CHANNEL_PREFIX", "verification-status"),
		},
		Identity: IdentityConfig{
			// Use a default for development - should be overridden in production
			JWTSigningKey:    envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:        os.Getenv("JWT_ISSUER"),
			SessionCacheSize: envInt("SESSION_CACHE_SIZE", 10_000),
			SessionCacheTTL:  envDuration("SESSION_CACHE_TTL", 15*time.Minute),
			AllowAnonymous:   envBool("ALLOW_ANONYMOUS", false),
		},
	}
}

// Validate rejects settings that cannot produce a working server.
func (c Config) Validate() error {
	var errs []error
	switch c.Verification.DecisionPolicy {
	case PolicyAutoApprove, PolicyManualReview:
	default:
		errs = append(errs, fmt.Errorf("unknown DECISION_POLICY %q", c.Verification.DecisionPolicy))
	}
	// Guests must never be verified without a reviewer.
	if c.Identity.AllowAnonymous && c.Verification.DecisionPolicy == PolicyAutoApprove {
		errs = append(errs, errors.New("ALLOW_ANONYMOUS=true requires DECISION_POLICY=manual_review"))
	}
	if c.Uploads.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.Verification.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if c.StatusStream.FallbackTimeout <= 0 {
		errs = append(errs, errors.New("STATUS_FALLBACK_TIMEOUT must be positive"))
	}

	switch c.Backends.Metadata {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("METADATA_BACKEND=postgres requires DATABASE_URL"))
		}
	case BackendDynamoDB:
		if c.AWS.DocumentTable == "" {
			errs = append(errs, errors.New("METADATA_BACKEND=dynamodb requires DOCUMENTS_TABLE"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown METADATA_BACKEND %q", c.Backends.Metadata))
	}

	switch c.Backends.Objects {
	case BackendMemory:
	case BackendS3:
		if c.AWS.Bucket == "" {
			errs = append(errs, errors.New("OBJECT_BACKEND=s3 requires DOCUMENTS_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown OBJECT_BACKEND %q", c.Backends.Objects))
	}

	switch c.Backends.Status {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("STATUS_BROKER=redis requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STATUS_BROKER %q", c.Backends.Status))
	}

	switch c.Backends.Audit {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("AUDIT_SINK=postgres requires DATABASE_URL"))
		}
	case BackendKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("AUDIT_SINK=kafka requires KAFKA_BROKERS"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUDIT_SINK %q", c.Backends.Audit))
	}
	return errors.Join(errs...)
}

// UsesPostgres reports whether any component needs a database connection.
func (c Config) UsesPostgres() bool {
	return c.Backends.Metadata == BackendPostgres || c.Backends.Audit == BackendPostgres
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
