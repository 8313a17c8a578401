package ports

import (
	"context"
	"io"

	"github.com/autoworks/jobcard-service/internal/core/domain"
)

// JobCardService is the role-gated use-case layer over JobCardRepository.
// The caller's principal is read from ctx.
type JobCardService interface {
	Create(ctx context.Context, in domain.NewJobCard) (*domain.JobCard, error)
	List(ctx context.Context) ([]domain.JobCard, error)
	Get(ctx context.Context, id string) (*domain.JobCard, error)
	FindByJobCardNumber(ctx context.Context, number string) (*domain.JobCard, error)
	FindByChassisNumber(ctx context.Context, chassis string) (*domain.JobCard, error)
	Update(ctx context.Context, id string, patch domain.JobCardPatch) (*domain.JobCard, error)
	Delete(ctx context.Context, id string) error
}

// ImageStore keeps uploaded job card images and returns the path they are
// served under.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
}

// ImageCleaner schedules removal of images no longer referenced.
type ImageCleaner interface {
	Enqueue(path string)
}

// EventPublisher fans job card lifecycle events out to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.JobCardEvent) error
}

// RateLimiter counts hits for key in the current window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
