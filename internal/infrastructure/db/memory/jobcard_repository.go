package memory

import (
	"context"

	"github.com/autoworks/jobcard-service/internal/core/domain"
	"github.com/autoworks/jobcard-service/internal/core/ports"
)

type jobCardRow struct {
	card domain.JobCard
}

func (r jobCardRow) clone() *domain.JobCard {
	c := r.card
	if r.card.ChassisNumber != nil {
		v := *r.card.ChassisNumber
		c.ChassisNumber = &v
	}
	return &c
}

type JobCardRepository struct {
	store *Store
}

func NewJobCardRepository(store *Store) ports.JobCardRepository {
	return &JobCardRepository{store: store}
}

func (r *JobCardRepository) Create(ctx context.Context, in domain.NewJobCard) (*domain.JobCard, error) {
	// The id is drawn under the lock so insertion order stays id order.
	r.store.mu.Lock()
	id, err := newID()
	if err != nil {
		r.store.mu.Unlock()
		return nil, domain.Unexpected("generate job card id", err)
	}
	now := r.store.timestamp()
	row := jobCardRow{card: domain.JobCard{
		ID:            id,
		JobCardNumber: in.JobCardNumber,
		ImagePath:     in.ImagePath,
		CreatedAt:     now,
		UpdatedAt:     now,
	}}
	if in.ChassisNumber != nil {
		v := *in.ChassisNumber
		row.card.ChassisNumber = &v
	}
	r.store.jobCards = append(r.store.jobCards, row)
	r.store.mu.Unlock()

	created, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, domain.Unexpected("re-read created job card", nil)
	}
	return created, nil
}

func (r *JobCardRepository) List(_ context.Context) ([]domain.JobCard, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.JobCard, 0, len(r.store.jobCards))
	for _, row := range r.store.jobCards {
		out = append(out, *row.clone())
	}
	return out, nil
}

func (r *JobCardRepository) FindByID(_ context.Context, id string) (*domain.JobCard, error) {
	return r.first(func(c *domain.JobCard) bool { return c.ID == id }), nil
}

func (r *JobCardRepository) FindByJobCardNumber(_ context.Context, number string) (*domain.JobCard, error) {
	return r.first(func(c *domain.JobCard) bool { return c.JobCardNumber == number }), nil
}

func (r *JobCardRepository) FindByChassisNumber(_ context.Context, chassis string) (*domain.JobCard, error) {
	return r.first(func(c *domain.JobCard) bool {
		return c.ChassisNumber != nil && *c.ChassisNumber == chassis
	}), nil
}

// first scans rows in insertion order, which is id order.
func (r *JobCardRepository) first(match func(*domain.JobCard) bool) *domain.JobCard {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, row := range r.store.jobCards {
		if match(&row.card) {
			return row.clone()
		}
	}
	return nil
}

func (r *JobCardRepository) Update(_ context.Context, card *domain.JobCard, patch domain.JobCardPatch) (*domain.JobCard, error) {
	if card == nil || card.ID == "" {
		return nil, domain.Unexpected("update job card without id", nil)
	}
	if patch.IsEmpty() {
		return card, nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.jobCards {
		row := &r.store.jobCards[i]
		if row.card.ID != card.ID {
			continue
		}
		patch.Apply(&row.card)
		if now := r.store.timestamp(); now.After(row.card.UpdatedAt) {
			row.card.UpdatedAt = now
		}
		*card = *row.clone()
		return row.clone(), nil
	}
	return nil, domain.Unexpected("job card "+card.ID+" no longer exists", nil)
}

// CountByImagePath reports how many job cards reference path.
func (r *JobCardRepository) CountByImagePath(_ context.Context, path string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	n := 0
	for _, row := range r.store.jobCards {
		if row.card.ImagePath == path {
			n++
		}
	}
	return n, nil
}

func (r *JobCardRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i, row := range r.store.jobCards {
		if row.card.ID == id {
			r.store.jobCards = append(r.store.jobCards[:i], r.store.jobCards[i+1:]...)
			return nil
		}
	}
	return nil
}
