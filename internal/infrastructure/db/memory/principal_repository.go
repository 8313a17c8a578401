package memory

import (
	"context"

	"github.com/autoworks/jobcard-service/internal/core/domain"
	"github.com/autoworks/jobcard-service/internal/core/ports"
)

type principalRow struct {
	principal domain.Principal
}

type PrincipalRepository struct {
	store *Store
}

func NewPrincipalRepository(store *Store) ports.PrincipalRepository {
	return &PrincipalRepository{store: store}
}

func (r *PrincipalRepository) Create(_ context.Context, p *domain.Principal) (*domain.Principal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, row := range r.store.principals {
		if row.principal.Username == p.Username {
			return nil, domain.Validation("User " + p.Username + " already exists")
		}
	}

	id, err := newID()
	if err != nil {
		return nil, domain.Unexpected("generate principal id", err)
	}
	row := *p
	row.ID = id
	if row.CreatedAt.IsZero() {
		row.CreatedAt = r.store.timestamp()
	}
	r.store.principals = append(r.store.principals, principalRow{principal: row})

	out := row
	return &out, nil
}

func (r *PrincipalRepository) FindByUsername(_ context.Context, username string) (*domain.Principal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, row := range r.store.principals {
		if row.principal.Username == username {
			out := row.principal
			return &out, nil
		}
	}
	return nil, nil
}
