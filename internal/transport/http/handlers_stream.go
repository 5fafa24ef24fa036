package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"propverify/internal/verification/models"
	"propverify/pkg/requestcontext"
)

const (
	streamWriteTimeout = 5 * time.Second
	streamBuffer       = 8
)

// handleStatusStream pushes the caller's status for a role over a WebSocket.
// The first message is the current status; later messages follow changes.
func (h *Handler) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	role, err := parseRole(r)
	if err != nil {
		h.fail(w, r, "invalid stream request", err)
		return
	}
	user := requestcontext.UserID(r.Context())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates := make(chan models.StatusRecord, streamBuffer)
	unsubscribe, err := h.statuses.Subscribe(ctx, user, role, func(rec models.StatusRecord) {
		offerLatest(updates, rec)
	})
	if err != nil {
		h.fail(w, r, "failed to subscribe to status", err)
		return
	}
	defer unsubscribe()

	opts := &websocket.AcceptOptions{}
	if len(h.originPatterns) > 0 {
		opts.OriginPatterns = h.originPatterns
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket upgrade failed", "error", err)
		return
	}
	h.logger.InfoContext(ctx, "status stream opened", "user_id", user.String(), "role", role.String())

	// Client messages are ignored; reading surfaces the close frame.
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case <-readErr:
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case rec := <-updates:
			writeCtx, cancelWrite := context.WithTimeout(ctx, streamWriteTimeout)
			err := wsjson.Write(writeCtx, conn, rec)
			cancelWrite()
			if err != nil {
				h.logger.WarnContext(ctx, "status stream write failed", "error", err)
				_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
				return
			}
		}
	}
}

// offerLatest never blocks the publisher. When the buffer is full the oldest
// pending record is dropped so the client still ends on the newest state.
func offerLatest(ch chan models.StatusRecord, rec models.StatusRecord) {
	for {
		select {
		case ch <- rec:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
