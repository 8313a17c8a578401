package ports

import (
	"context"

	"github.com/autoworks/jobcard-service/internal/core/domain"
)

// PrincipalRepository persists principals keyed by a unique username.
type PrincipalRepository interface {
	// Create inserts p and returns the row as stored. A uniqueness violation
	// on username surfaces as a validation error.
	Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error)
	// FindByUsername returns nil, nil when no principal matches.
	FindByUsername(ctx context.Context, username string) (*domain.Principal, error)
}
