package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/autoworks/jobcard-service/internal/core/domain"
	"github.com/autoworks/jobcard-service/internal/core/ports"
	"github.com/autoworks/jobcard-service/internal/infrastructure/db/memory"
)

type recordingCleaner struct {
	mu    sync.Mutex
	paths []string
}

func (c *recordingCleaner) Enqueue(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}

type recordingPublisher struct {
	events []domain.JobCardEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.JobCardEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type jobCardFixture struct {
	svc       ports.JobCardService
	repo      ports.JobCardRepository
	cleaner   *recordingCleaner
	publisher *recordingPublisher
}

func newJobCardFixture(t *testing.T) *jobCardFixture {
	t.Helper()
	repo := memory.NewJobCardRepository(memory.NewStore())
	f := &jobCardFixture{repo: repo, cleaner: &recordingCleaner{}, publisher: &recordingPublisher{}}
	f.svc = NewJobCardService(repo, f.cleaner, f.publisher, zerolog.Nop())
	return f
}

func asAdmin() context.Context {
	return domain.ContextWithPrincipal(context.Background(), &domain.PrincipalView{ID: "a1", Username: "admin", Role: domain.RoleAdmin})
}

func asEmployee() context.Context {
	return domain.ContextWithPrincipal(context.Background(), &domain.PrincipalView{ID: "e1", Username: "emp", Role: domain.RoleEmployee})
}

func TestJobCardService_Gate(t *testing.T) {
	f := newJobCardFixture(t)
	card, err := f.svc.Create(asAdmin(), domain.NewJobCard{JobCardNumber: "JC-1", ImagePath: "/a.jpg"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	anon := context.Background()
	emp := asEmployee()
	patch := domain.JobCardPatch{ImagePath: domain.Set("/b.jpg")}

	ops := []struct {
		name string
		ctx  context.Context
		call func(ctx context.Context) error
		want error
	}{
		{"anon list", anon, func(ctx context.Context) error { _, err := f.svc.List(ctx); return err }, domain.ErrNotAuthenticated},
		{"anon get", anon, func(ctx context.Context) error { _, err := f.svc.Get(ctx, card.ID); return err }, domain.ErrNotAuthenticated},
		{"anon create", anon, func(ctx context.Context) error {
			_, err := f.svc.Create(ctx, domain.NewJobCard{JobCardNumber: "x", ImagePath: "/x.jpg"})
			return err
		}, domain.ErrNotAuthenticated},
		{"employee create", emp, func(ctx context.Context) error {
			_, err := f.svc.Create(ctx, domain.NewJobCard{JobCardNumber: "x", ImagePath: "/x.jpg"})
			return err
		}, domain.ErrAccessDenied},
		{"employee update", emp, func(ctx context.Context) error { _, err := f.svc.Update(ctx, card.ID, patch); return err }, domain.ErrAccessDenied},
		{"employee delete", emp, func(ctx context.Context) error { return f.svc.Delete(ctx, card.ID) }, domain.ErrAccessDenied},
		{"employee list", emp, func(ctx context.Context) error { _, err := f.svc.List(ctx); return err }, nil},
		{"employee get", emp, func(ctx context.Context) error { _, err := f.svc.Get(ctx, card.ID); return err }, nil},
		{"employee by number", emp, func(ctx context.Context) error { _, err := f.svc.FindByJobCardNumber(ctx, "JC-1"); return err }, nil},
		{"employee by chassis", emp, func(ctx context.Context) error { _, err := f.svc.FindByChassisNumber(ctx, "CH"); return err }, nil},
	}
	for _, tc := range ops {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(tc.ctx); err != tc.want {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	stored, _ := f.repo.FindByID(context.Background(), card.ID)
	if stored.ImagePath != "/a.jpg" {
		t.Fatal("a denied update must not reach the store")
	}
	if len(f.publisher.events) != 1 {
		t.Fatalf("only the admin create should publish, got %d events", len(f.publisher.events))
	}
}

func TestJobCardService_CreateValidation(t *testing.T) {
	f := newJobCardFixture(t)
	for _, in := range []domain.NewJobCard{
		{ImagePath: "/a.jpg"},
		{JobCardNumber: "JC-1"},
		{JobCardNumber: "  ", ImagePath: "/a.jpg"},
	} {
		if _, err := f.svc.Create(asAdmin(), in); domain.KindOf(err) != domain.KindValidation {
			t.Fatalf("Create(%+v) = %v, want validation error", in, err)
		}
	}
}

func TestJobCardService_UpdateLifecycle(t *testing.T) {
	f := newJobCardFixture(t)
	ctx := asAdmin()
	card, _ := f.svc.Create(ctx, domain.NewJobCard{JobCardNumber: "JC-2", ImagePath: "/old.jpg"})

	same, err := f.svc.Update(ctx, card.ID, domain.JobCardPatch{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if !same.UpdatedAt.Equal(card.UpdatedAt) {
		t.Fatal("empty update must keep updated_at")
	}
	if len(f.publisher.events) != 1 {
		t.Fatal("empty update must not publish")
	}

	updated, err := f.svc.Update(ctx, card.ID, domain.JobCardPatch{ImagePath: domain.Set("/new.jpg")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ImagePath != "/new.jpg" || updated.UpdatedAt.Before(card.UpdatedAt) {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if len(f.cleaner.paths) != 1 || f.cleaner.paths[0] != "/old.jpg" {
		t.Fatalf("replaced image must be scheduled for removal, got %v", f.cleaner.paths)
	}
	if last := f.publisher.events[len(f.publisher.events)-1]; last.Type != domain.JobCardUpdated || last.Actor != "admin" {
		t.Fatalf("unexpected event: %+v", last)
	}

	if _, err := f.svc.Update(ctx, card.ID, domain.JobCardPatch{JobCardNumber: domain.Null[string]()}); domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("null job_card_number must be rejected, got %v", err)
	}
}

func TestJobCardService_UpdateMissing(t *testing.T) {
	f := newJobCardFixture(t)
	got, err := f.svc.Update(asAdmin(), "missing", domain.JobCardPatch{ImagePath: domain.Set("/x.jpg")})
	if err != nil || got != nil {
		t.Fatalf("Update(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestJobCardService_DeleteIdempotent(t *testing.T) {
	f := newJobCardFixture(t)
	ctx := asAdmin()
	card, _ := f.svc.Create(ctx, domain.NewJobCard{JobCardNumber: "JC-3", ImagePath: "/gone.jpg"})

	if err := f.svc.Delete(ctx, card.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.svc.Delete(ctx, card.ID); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if got, _ := f.svc.Get(ctx, card.ID); got != nil {
		t.Fatal("card must be gone")
	}
	if len(f.cleaner.paths) != 1 || f.cleaner.paths[0] != "/gone.jpg" {
		t.Fatalf("delete must remove the image once, got %v", f.cleaner.paths)
	}
	if n := len(f.publisher.events); n != 2 || f.publisher.events[1].Type != domain.JobCardDeleted {
		t.Fatalf("expected created+deleted events, got %+v", f.publisher.events)
	}
}

func TestJobCardService_PublishFailureIsNotFatal(t *testing.T) {
	f := newJobCardFixture(t)
	f.publisher.err = errors.New("broker down")

	card, err := f.svc.Create(asAdmin(), domain.NewJobCard{JobCardNumber: "JC-4", ImagePath: "/a.jpg"})
	if err != nil || card == nil {
		t.Fatalf("Create must succeed when publishing fails, got %v", err)
	}
}

func TestJobCardService_ListEmpty(t *testing.T) {
	f := newJobCardFixture(t)
	cards, err := f.svc.List(asEmployee())
	if err != nil || cards == nil || len(cards) != 0 {
		t.Fatalf("List = %v, %v; want empty slice", cards, err)
	}
}

func TestJobCardService_NilCollaborators(t *testing.T) {
	svc := NewJobCardService(memory.NewJobCardRepository(memory.NewStore()), nil, nil, zerolog.Nop())
	ctx := asAdmin()
	card, err := svc.Create(ctx, domain.NewJobCard{JobCardNumber: "JC-5", ImagePath: "/a.jpg"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, card.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestJobCardService_SharedImageIsKept(t *testing.T) {
	f := newJobCardFixture(t)
	ctx := asAdmin()
	a, _ := f.svc.Create(ctx, domain.NewJobCard{JobCardNumber: "A", ImagePath: "/uploads/job_cards/a.gif"})
	b, _ := f.svc.Create(ctx, domain.NewJobCard{JobCardNumber: "B", ImagePath: "/uploads/job_cards/b.gif"})

	if _, err := f.svc.Update(ctx, b.ID, domain.JobCardPatch{ImagePath: domain.Set(a.ImagePath)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := f.svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(f.cleaner.paths) != 1 || f.cleaner.paths[0] != "/uploads/job_cards/b.gif" {
		t.Fatalf("only the unreferenced image may be removed, got %v", f.cleaner.paths)
	}

	if err := f.svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := f.cleaner.paths[len(f.cleaner.paths)-1]; got != a.ImagePath {
		t.Fatalf("last reference gone, image must be removed, got %v", f.cleaner.paths)
	}
}

type countFailingRepo struct {
	ports.JobCardRepository
}

func (countFailingRepo) CountByImagePath(context.Context, string) (int, error) {
	return 0, errors.New("store down")
}

func TestJobCardService_CountFailureKeepsImage(t *testing.T) {
	cleaner := &recordingCleaner{}
	repo := countFailingRepo{memory.NewJobCardRepository(memory.NewStore())}
	svc := NewJobCardService(repo, cleaner, nil, zerolog.Nop())
	ctx := asAdmin()

	card, err := svc.Create(ctx, domain.NewJobCard{JobCardNumber: "C", ImagePath: "/c.gif"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, card.ID); err != nil {
		t.Fatalf("Delete must still succeed: %v", err)
	}
	if len(cleaner.paths) != 0 {
		t.Fatalf("image must be kept when references cannot be counted, got %v", cleaner.paths)
	}
}
