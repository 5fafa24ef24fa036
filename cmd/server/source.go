package main

import (
	"context"
	"sync/atomic"

	"propverify/internal/statuschannel"
	"propverify/internal/verification/models"
	id "propverify/pkg/domain"
	"propverify/pkg/platform/sentinel"
)

// lateSource breaks the construction cycle between the status channel and
// the verification service that publishes into it.
type lateSource struct {
	target atomic.Pointer[statuschannel.StatusSource]
}

func (s *lateSource) bind(src statuschannel.StatusSource) {
	s.target.Store(&src)
}

func (s *lateSource) Status(ctx context.Context, user id.UserID, role id.Role) (models.StatusRecord, error) {
	src := s.target.Load()
	if src == nil {
		return models.StatusRecord{}, sentinel.ErrUnavailable
	}
	return (*src).Status(ctx, user, role)
}
