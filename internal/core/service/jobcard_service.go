package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/autoworks/jobcard-service/internal/core/domain"
	"github.com/autoworks/jobcard-service/internal/core/ports"
)

var (
	writeRoles = []domain.Role{domain.RoleAdmin}
	readRoles  = []domain.Role{domain.RoleAdmin, domain.RoleEmployee}
)

type jobCardService struct {
	repo      ports.JobCardRepository
	cleaner   ports.ImageCleaner
	publisher ports.EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewJobCardService returns a JobCardService. cleaner and publisher may be
// nil, in which case replaced images are kept and no events are sent.
func NewJobCardService(
	repo ports.JobCardRepository,
	cleaner ports.ImageCleaner,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) ports.JobCardService {
	if cleaner == nil {
		cleaner = nopCleaner{}
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &jobCardService{repo: repo, cleaner: cleaner, publisher: publisher, log: log, now: time.Now}
}

func (s *jobCardService) Create(ctx context.Context, in domain.NewJobCard) (*domain.JobCard, error) {
	actor, err := AuthorizeContext(ctx, writeRoles...)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	card, err := s.repo.Create(ctx, in)
	if err != nil {
		s.log.Error().Err(err).Str("job_card_number", in.JobCardNumber).Msg("failed to create job card")
		return nil, domain.AsError(err, "create job card")
	}

	s.log.Info().Str("job_card_id", card.ID).Str("job_card_number", card.JobCardNumber).Str("actor", actor.Username).Msg("job card created")
	s.publish(ctx, domain.JobCardCreated, card, actor)
	return card, nil
}

func (s *jobCardService) List(ctx context.Context) ([]domain.JobCard, error) {
	if _, err := AuthorizeContext(ctx, readRoles...); err != nil {
		return nil, err
	}
	cards, err := s.repo.List(ctx)
	if err != nil {
		return nil, domain.AsError(err, "list job cards")
	}
	if cards == nil {
		cards = []domain.JobCard{}
	}
	return cards, nil
}

// Get returns nil, nil when no job card has the id.
func (s *jobCardService) Get(ctx context.Context, id string) (*domain.JobCard, error) {
	if _, err := AuthorizeContext(ctx, readRoles...); err != nil {
		return nil, err
	}
	return lookup("find job card", func() (*domain.JobCard, error) { return s.repo.FindByID(ctx, id) })
}

func (s *jobCardService) FindByJobCardNumber(ctx context.Context, number string) (*domain.JobCard, error) {
	if _, err := AuthorizeContext(ctx, readRoles...); err != nil {
		return nil, err
	}
	return lookup("find job card by number", func() (*domain.JobCard, error) { return s.repo.FindByJobCardNumber(ctx, number) })
}

func (s *jobCardService) FindByChassisNumber(ctx context.Context, chassis string) (*domain.JobCard, error) {
	if _, err := AuthorizeContext(ctx, readRoles...); err != nil {
		return nil, err
	}
	return lookup("find job card by chassis", func() (*domain.JobCard, error) { return s.repo.FindByChassisNumber(ctx, chassis) })
}

func lookup(op string, find func() (*domain.JobCard, error)) (*domain.JobCard, error) {
	card, err := find()
	if err != nil {
		return nil, domain.AsError(err, op)
	}
	return card, nil
}

// Update applies patch to the job card with id. It returns nil, nil when the
// card does not exist.
func (s *jobCardService) Update(ctx context.Context, id string, patch domain.JobCardPatch) (*domain.JobCard, error) {
	actor, err := AuthorizeContext(ctx, writeRoles...)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.AsError(err, "find job card")
	}
	if card == nil {
		return nil, nil
	}
	if patch.IsEmpty() {
		return card, nil
	}

	previousImage := card.ImagePath
	updated, err := s.repo.Update(ctx, card, patch)
	if err != nil {
		s.log.Error().Err(err).Str("job_card_id", id).Msg("failed to update job card")
		return nil, domain.AsError(err, "update job card")
	}

	if updated.ImagePath != previousImage {
		s.release(ctx, previousImage)
	}
	s.log.Info().Str("job_card_id", id).Str("actor", actor.Username).Msg("job card updated")
	s.publish(ctx, domain.JobCardUpdated, updated, actor)
	return updated, nil
}

// Delete removes the job card with id. Unknown ids succeed.
func (s *jobCardService) Delete(ctx context.Context, id string) error {
	actor, err := AuthorizeContext(ctx, writeRoles...)
	if err != nil {
		return err
	}

	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.AsError(err, "find job card")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Error().Err(err).Str("job_card_id", id).Msg("failed to delete job card")
		return domain.AsError(err, "delete job card")
	}
	if card == nil {
		return nil
	}

	s.release(ctx, card.ImagePath)
	s.log.Info().Str("job_card_id", id).Str("actor", actor.Username).Msg("job card deleted")
	s.publish(ctx, domain.JobCardDeleted, card, actor)
	return nil
}

// release schedules path for removal once no job card references it. When
// the count fails the file is kept.
func (s *jobCardService) release(ctx context.Context, path string) {
	n, err := s.repo.CountByImagePath(ctx, path)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("could not count image references, keeping file")
		return
	}
	if n > 0 {
		s.log.Debug().Str("path", path).Int("references", n).Msg("image still referenced, keeping file")
		return
	}
	s.cleaner.Enqueue(path)
}

func (s *jobCardService) publish(ctx context.Context, typ domain.JobCardEventType, card *domain.JobCard, actor *domain.PrincipalView) {
	ev := domain.JobCardEvent{Type: typ, JobCard: *card, Actor: actor.Username, OccurredAt: s.now().UTC()}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", string(typ)).Str("job_card_id", card.ID).Msg("publish job card event failed")
	}
}

type nopCleaner struct{}

func (nopCleaner) Enqueue(string) {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.JobCardEvent) error { return nil }
