package service

import (
	"context"

	"github.com/autoworks/jobcard-service/internal/core/domain"
)

// Authorize is the access gate. It succeeds iff p is present and its role is
// one of allowed. It performs no I/O.
func Authorize(p *domain.PrincipalView, allowed ...domain.Role) error {
	if p == nil {
		return domain.ErrNotAuthenticated
	}
	for _, r := range allowed {
		if p.Role == r {
			return nil
		}
	}
	return domain.ErrAccessDenied
}

// AuthorizeContext applies Authorize to the principal attached to ctx.
func AuthorizeContext(ctx context.Context, allowed ...domain.Role) (*domain.PrincipalView, error) {
	p := domain.PrincipalFromContext(ctx)
	if err := Authorize(p, allowed...); err != nil {
		return nil, err
	}
	return p, nil
}
