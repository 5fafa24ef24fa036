package worker

import (
	"context"
	"log/slog"

	audit "propverify/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. Append
// failures are logged and skipped; a broken sink must not stall the inbox.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run processes events until the inbox is closed (returns nil after draining)
// or ctx is done (returns ctx.Err()).
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", event.Action,
					"user_id", event.UserID,
					"request_id", event.RequestID,
					"error", err,
				)
			}
		}
	}
}
