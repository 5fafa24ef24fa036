// Package statuschannel pushes verification status changes to subscribers.
//
// Each subscriber gets the current record first and then every change, in
// order, from its own delivery goroutine. When the status store is down or
// slow the subscriber receives a not_submitted default instead of waiting
// and keeps re-reading until the store answers. When the broker drops the
// subscription the channel reconnects and refetches so no change is lost.
package statuschannel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"propverify/internal/platform/metrics"
	"propverify/internal/verification/models"
	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/circuit"
)

const (
	defaultFallbackTimeout = 5 * time.Second
	defaultReconnectDelay  = 500 * time.Millisecond
)

var errBreakerOpen = errors.New("status store circuit open")

// StatusSource reads the latest status record for (user, role).
type StatusSource interface {
	Status(ctx context.Context, user id.UserID, role id.Role) (models.StatusRecord, error)
}

type Channel struct {
	source  StatusSource
	broker  Broker
	breaker *circuit.Breaker
	reads   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger

	fallbackTimeout time.Duration
	reconnectDelay  time.Duration
}

type Option func(*Channel)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Channel) { c.metrics = m }
}

// WithFallbackTimeout bounds the wait for a status read before the
// subscriber gets the default record.
func WithFallbackTimeout(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.fallbackTimeout = d
		}
	}
}

func WithReconnectDelay(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Channel) {
		if b != nil {
			c.breaker = b
		}
	}
}

func New(source StatusSource, broker Broker, opts ...Option) *Channel {
	c := &Channel{
		source:          source,
		broker:          broker,
		logger:          slog.Default(),
		fallbackTimeout: defaultFallbackTimeout,
		reconnectDelay:  defaultReconnectDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = circuit.New("status-store", circuit.WithProbeInterval(c.fallbackTimeout))
	}
	return c
}

// Publish forwards rec to the broker. It lets the channel act as the
// verification service's status publisher.
func (c *Channel) Publish(ctx context.Context, rec models.StatusRecord) error {
	return c.broker.Publish(ctx, rec)
}

// Subscribe starts delivering records for (user, role) to onUpdate until ctx
// ends or the returned func is called. onUpdate runs on a single goroutine
// per subscription and must not call the unsubscribe func.
func (c *Channel) Subscribe(ctx context.Context, user id.UserID, role id.Role, onUpdate func(models.StatusRecord)) (func(), error) {
	if user.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown role: "+string(role))
	}
	if onUpdate == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "update callback is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	if c.metrics != nil {
		c.metrics.IncStatusSubscribers()
	}
	go func() {
		defer close(done)
		if c.metrics != nil {
			defer c.metrics.DecStatusSubscribers()
		}
		sub := &subscriber{channel: c, user: user, role: role, onUpdate: onUpdate}
		sub.run(ctx)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

type subscriber struct {
	channel  *Channel
	user     id.UserID
	role     id.Role
	onUpdate func(models.StatusRecord)

	delivered bool
	last      models.StatusRecord
	// lastReal is the LastUpdated of the newest record read from the store
	// or broker. Fallback defaults never advance it.
	lastReal time.Time
}

func (s *subscriber) run(ctx context.Context) {
	c := s.channel
	for {
		// Subscribe before reading so a change between the read and the
		// subscription cannot be missed.
		updates, err := c.broker.Subscribe(ctx, s.user, s.role)
		if err != nil && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "status broker subscribe failed",
				"user_id", s.user.String(),
				"role", s.role.String(),
				"error", err,
			)
		}

		rec, fallback := c.current(ctx, s.user, s.role)
		s.deliver(ctx, rec, fallback)

		if err == nil {
			s.consume(ctx, updates, fallback)
		}
		if ctx.Err() != nil {
			return
		}

		c.logger.InfoContext(ctx, "status subscription interrupted, reconnecting",
			"user_id", s.user.String(),
			"role", s.role.String(),
		)
		timer := time.NewTimer(c.reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// consume delivers broker updates until the subscription closes. While the
// last delivery was a fallback it also re-reads the store every reconnect
// delay, so a recovered store replaces the default even if no change is ever
// published again.
func (s *subscriber) consume(ctx context.Context, updates <-chan models.StatusRecord, stale bool) {
	c := s.channel
	var (
		timer *time.Timer
		retry <-chan time.Time
	)
	if stale {
		timer = time.NewTimer(c.reconnectDelay)
		defer timer.Stop()
		retry = timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-updates:
			if !ok {
				return
			}
			s.deliver(ctx, rec, false)
			retry = nil
		case <-retry:
			rec, fallback := c.current(ctx, s.user, s.role)
			s.deliver(ctx, rec, fallback)
			if fallback {
				timer.Reset(c.reconnectDelay)
			} else {
				retry = nil
			}
		}
	}
}

func (s *subscriber) deliver(ctx context.Context, rec models.StatusRecord, fallback bool) {
	if ctx.Err() != nil {
		return
	}
	if !fallback {
		if rec.LastUpdated.Before(s.lastReal) {
			return
		}
		s.lastReal = rec.LastUpdated
	}
	if s.delivered && sameState(s.last, rec) {
		return
	}
	s.delivered = true
	s.last = rec
	s.onUpdate(rec)
}

func sameState(a, b models.StatusRecord) bool {
	if a.Status != b.Status {
		return false
	}
	if a.CaseID == nil || b.CaseID == nil {
		return a.CaseID == nil && b.CaseID == nil
	}
	return *a.CaseID == *b.CaseID
}

// current reads the status record through the breaker. Concurrent reads for
// the same pair share one store call. It reports true when the returned
// record is the default rather than a stored one.
func (c *Channel) current(ctx context.Context, user id.UserID, role id.Role) (models.StatusRecord, bool) {
	if !c.breaker.Allow() {
		return c.fallback(ctx, user, role, errBreakerOpen), true
	}

	ctx, cancel := context.WithTimeout(ctx, c.fallbackTimeout)
	defer cancel()

	key := user.String() + "|" + role.String()
	result := c.reads.DoChan(key, func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fallbackTimeout)
		defer cancel()
		return c.source.Status(readCtx, user, role)
	})

	select {
	case res := <-result:
		if res.Err != nil {
			c.recordFailure()
			return c.fallback(ctx, user, role, res.Err), true
		}
		c.recordSuccess()
		return res.Val.(models.StatusRecord), false
	case <-ctx.Done():
		c.recordFailure()
		return c.fallback(ctx, user, role, ctx.Err()), true
	}
}

func (c *Channel) fallback(ctx context.Context, user id.UserID, role id.Role, cause error) models.StatusRecord {
	if c.metrics != nil {
		c.metrics.IncStatusFallback()
	}
	c.logger.WarnContext(ctx, "delivering default status",
		"user_id", user.String(),
		"role", role.String(),
		"error", cause,
	)
	return models.DefaultStatus(user, role, time.Now())
}

func (c *Channel) recordFailure() {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.Warn("status store circuit opened", "breaker", c.breaker.Name())
		if c.metrics != nil {
			c.metrics.SetStatusBreakerOpen(true)
		}
	}
}

func (c *Channel) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("status store circuit closed", "breaker", c.breaker.Name())
		if c.metrics != nil {
			c.metrics.SetStatusBreakerOpen(false)
		}
	}
}
