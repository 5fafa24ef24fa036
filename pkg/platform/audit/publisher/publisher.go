// Package publisher fronts an audit store with optional async buffering.
//
// Services treat the publisher as fire-and-forget: an Emit error is logged by
// the caller and never fails the primary operation.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	id "propverify/pkg/domain"
	audit "propverify/pkg/platform/audit"
	"propverify/pkg/platform/audit/worker"
	"propverify/pkg/requestcontext"
)

// ErrBufferFull is returned by Emit in async mode when the buffer is saturated.
var ErrBufferFull = errors.New("audit buffer full")

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("audit publisher closed")

// DropRecorder counts events that never reached the store.
type DropRecorder interface {
	IncAuditDropped(action string)
}

type Publisher struct {
	store  audit.Store
	logger *slog.Logger
	drops  DropRecorder

	bufferSize int
	inbox      chan audit.Event
	cancel     context.CancelFunc
	done       chan struct{}

	mu     sync.RWMutex
	closed bool
}

type Option func(*Publisher)

// WithAsyncBuffer enables async mode: events are queued and persisted by a
// background worker. A full buffer drops the event.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.bufferSize = size
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithDropRecorder(drops DropRecorder) Option {
	return func(p *Publisher) {
		p.drops = drops
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		ctx, cancel := context.WithCancel(context.Background())
		p.cancel = cancel
		w := worker.NewWorker(store, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			_ = w.Run(ctx)
		}()
	}
	return p
}

// Emit stamps the event with request-scoped metadata and hands it to the store
// (sync mode) or the buffer (async mode).
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped(event)
		return ErrClosed
	}
	select {
	case p.inbox <- event:
		return nil
	default:
	}
	p.dropped(event)
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrBufferFull
}

func (p *Publisher) dropped(event audit.Event) {
	if p.drops != nil {
		p.drops.IncAuditDropped(event.Action)
	}
}

// List reads events for a user back from the underlying store.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	lister, ok := p.store.(audit.Lister)
	if !ok {
		return nil, errors.New("audit store does not support listing")
	}
	return lister.ListByUser(ctx, userID)
}

// Close stops accepting events and waits for buffered ones to be persisted.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()

	<-p.done
	p.cancel()
}
