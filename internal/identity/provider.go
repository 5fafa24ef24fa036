// Package identity resolves callers from request credentials. Providers are
// tried in order: a signed JWT, then a cached session, then an anonymous
// fallback when enabled.
package identity

import (
	"context"
	"errors"

	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/middleware/auth"
)

// ErrNotApplicable tells the chain to try the next provider because the
// credentials carry nothing this provider understands.
var ErrNotApplicable = errors.New("identity provider not applicable")

// Provider resolves one kind of credential.
type Provider interface {
	Resolve(ctx context.Context, creds auth.Credentials) (*auth.Identity, error)
}

// Chain tries each provider in order. Any error other than ErrNotApplicable
// stops the chain, so a bad token never falls through to a weaker provider.
type Chain []Provider

func (c Chain) Resolve(ctx context.Context, creds auth.Credentials) (*auth.Identity, error) {
	for _, p := range c {
		ident, err := p.Resolve(ctx, creds)
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return ident, nil
	}
	return nil, dErrors.New(dErrors.CodeUnauthorized, "missing credentials")
}
