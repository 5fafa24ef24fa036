package identity

import (
	"context"

	id "propverify/pkg/domain"
	"propverify/pkg/platform/middleware/auth"
)

// AnonymousPrefix marks user ids minted for unauthenticated browsers.
const AnonymousPrefix = "anon:"

// Anonymous gives a browser with an unrecognised session id a stable guest
// identity derived from that id. It never grants the reviewer claim and
// must come last in a chain.
type Anonymous struct{}

func (Anonymous) Resolve(_ context.Context, creds auth.Credentials) (*auth.Identity, error) {
	if creds.SessionID == "" {
		return nil, ErrNotApplicable
	}
	return &auth.Identity{
		UserID: id.UserID(AnonymousPrefix + creds.SessionID),
		Source: "anonymous",
	}, nil
}
