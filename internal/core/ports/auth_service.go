package ports

import (
	"context"

	"github.com/autoworks/jobcard-service/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password string, role domain.Role) (*domain.Principal, error)
	Login(ctx context.Context, username, password string) (*domain.PrincipalView, error)
	IssueToken(p *domain.PrincipalView) (string, error)
}

// TokenVerifier resolves a bearer token into the principal it was issued for.
type TokenVerifier interface {
	Verify(token string) (*domain.PrincipalView, error)
}
