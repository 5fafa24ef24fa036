package httptransport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/mock/gomock"

	"propverify/internal/verification/models"
	id "propverify/pkg/domain"
)

func (s *HandlerSuite) TestStatusStream() {
	srv := httptest.NewServer(s.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	caseID := id.NewCaseID()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var unsubscribed atomic.Bool

	s.statuses.EXPECT().Subscribe(gomock.Any(), id.UserID("agent-1"), id.RoleAgent, gomock.Any()).
		DoAndReturn(func(_ context.Context, user id.UserID, role id.Role, onUpdate func(models.StatusRecord)) (func(), error) {
			onUpdate(models.DefaultStatus(user, role, now))
			onUpdate(models.StatusRecord{UserID: user, Role: role, Status: models.StatusPending, CaseID: &caseID, LastUpdated: now})
			return func() { unsubscribed.Store(true) }, nil
		})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL+"/v1/verification/agent/stream", &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + agentToken}},
	})
	s.Require().NoError(err)

	var first, second models.StatusRecord
	s.Require().NoError(wsjson.Read(ctx, conn, &first))
	s.Require().NoError(wsjson.Read(ctx, conn, &second))
	s.Equal(models.StatusNotSubmitted, first.Status)
	s.Equal(models.StatusPending, second.Status)
	s.Require().NotNil(second.CaseID)
	s.Equal(caseID, *second.CaseID)

	s.Require().NoError(conn.Close(websocket.StatusNormalClosure, "done"))
	s.Eventually(unsubscribed.Load, time.Second, 10*time.Millisecond)
}

func (s *HandlerSuite) TestStatusStreamRejectsBadRole() {
	w := s.do(http.MethodGet, "/v1/verification/broker/stream", agentToken, nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestStatusStreamRequiresIdentity() {
	w := s.do(http.MethodGet, "/v1/verification/agent/stream", "", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}
