package ports

import (
	"context"

	"github.com/autoworks/jobcard-service/internal/core/domain"
)

// JobCardRepository owns the job card lifecycle. Lookups return nil, nil on
// no match. Job card and chassis numbers are not unique; single-key lookups
// resolve to the first match in primary-key order.
type JobCardRepository interface {
	Create(ctx context.Context, in domain.NewJobCard) (*domain.JobCard, error)
	List(ctx context.Context) ([]domain.JobCard, error)
	FindByID(ctx context.Context, id string) (*domain.JobCard, error)
	FindByJobCardNumber(ctx context.Context, number string) (*domain.JobCard, error)
	FindByChassisNumber(ctx context.Context, chassis string) (*domain.JobCard, error)
	// Update writes only the fields present in patch and mirrors the stored
	// row back into card. An empty patch returns card untouched.
	Update(ctx context.Context, card *domain.JobCard, patch domain.JobCardPatch) (*domain.JobCard, error)
	// CountByImagePath reports how many job cards reference path.
	CountByImagePath(ctx context.Context, path string) (int, error)
	// Delete is idempotent: deleting an unknown id succeeds.
	Delete(ctx context.Context, id string) error
}
