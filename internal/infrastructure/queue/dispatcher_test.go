package queue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingRemover struct {
	mu      sync.Mutex
	removed []string
	err     error
}

func (r *recordingRemover) Remove(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, path)
	return r.err
}

func (r *recordingRemover) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.removed...)
	sort.Strings(out)
	return out
}

func TestDispatcher_RemovesEnqueuedPaths(t *testing.T) {
	rm := &recordingRemover{}
	d := NewDispatcher(3, rm, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Enqueue("/uploads/job_cards/a.jpg")
	d.Enqueue("/uploads/job_cards/b.gif")
	d.Enqueue("")

	deadline := time.Now().Add(2 * time.Second)
	for len(rm.paths()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	d.Wait()

	got := rm.paths()
	if len(got) != 2 || got[0] != "/uploads/job_cards/a.jpg" || got[1] != "/uploads/job_cards/b.gif" {
		t.Fatalf("removed = %v", got)
	}
}

func TestDispatcher_DrainsOnShutdown(t *testing.T) {
	rm := &recordingRemover{}
	d := NewDispatcher(1, rm, zerolog.Nop())

	// queued before the workers start, so shutdown must drain them
	d.Enqueue("/x/1.jpg")
	d.Enqueue("/x/2.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	if got := rm.paths(); len(got) != 2 {
		t.Fatalf("expected both paths drained, got %v", got)
	}
}

func TestDispatcher_RemovalErrorIsLogged(t *testing.T) {
	rm := &recordingRemover{err: errors.New("permission denied")}
	d := NewDispatcher(1, rm, zerolog.Nop())
	d.Enqueue("/x/1.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	if len(rm.paths()) != 1 {
		t.Fatal("removal must have been attempted")
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, &recordingRemover{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	for _, p := range []string{"/a.jpg", "/b.jpg", "/uploads/job_cards/1700000000000-1.gif"} {
		i := d.shardIndex(p)
		if i < 0 || i >= len(d.workers) || i != d.shardIndex(p) {
			t.Fatalf("unstable or out-of-range shard %d for %s", i, p)
		}
	}
}
