package auth

import (
	"context"

	"authcallback/internal/auth/view"
	"authcallback/internal/domain"
)

// Provider is the host-facing entry point: it runs one resolution per
// authentication attempt and wraps the result in an authorization view.
type Provider struct {
	resolver RecordResolver
}

// NewProvider creates a provider backed by the given resolver.
func NewProvider(resolver RecordResolver) *Provider {
	return &Provider{resolver: resolver}
}

// Authenticate resolves the given credentials into a fresh authorization
// view. It returns domain.ErrAuthenticationFailed when resolution yields
// no record; no internal detail of why ever reaches the caller.
func (p *Provider) Authenticate(ctx context.Context, creds domain.Credentials) (*view.View, error) {
	record := p.resolver.Resolve(ctx, creds)
	if record == nil {
		return nil, domain.ErrAuthenticationFailed
	}
	return view.New(record)
}
