package domain

import "context"

type principalKey struct{}

// ContextWithPrincipal attaches an authenticated principal to ctx.
func ContextWithPrincipal(ctx context.Context, p *PrincipalView) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal attached upstream, or nil when
// authentication did not take place.
func PrincipalFromContext(ctx context.Context) *PrincipalView {
	p, _ := ctx.Value(principalKey{}).(*PrincipalView)
	return p
}
