// Package queue removes images that no job card references any more. Work is
// sharded across a fixed set of workers so removals never block a request.
package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/autoworks/jobcard-service/internal/api/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Remover deletes a stored image by the path it was served under.
type Remover interface {
	Remove(ctx context.Context, path string) error
}

// Dispatcher implements ports.ImageCleaner. Paths hash to a fixed worker, so
// repeated removals of one path are serialised.
type Dispatcher struct {
	workers []chan string
	remover Remover
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, remover Remover, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan string, numWorkers),
		remover: remover,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches the workers. They drain what is queued and stop when ctx is
// cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Enqueue schedules path for removal. A full worker channel drops the path
// with a warning rather than blocking the caller.
func (d *Dispatcher) Enqueue(path string) {
	if path == "" {
		return
	}
	idx := d.shardIndex(path)
	select {
	case d.workers[idx] <- path:
		metrics.ImageCleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		d.log.Warn().Str("path", path).Int("worker_id", idx).Msg("image cleanup queue full, dropping")
	}
}

// shardIndex maps a path deterministically to a worker index.
func (d *Dispatcher) shardIndex(path string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer d.wg.Done()
	depth := metrics.ImageCleanupQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch, depth.Dec)
			return
		case path := <-ch:
			depth.Dec()
			d.remove(context.WithoutCancel(ctx), id, path)
		}
	}
}

// drain removes whatever is still buffered once shutdown starts.
func (d *Dispatcher) drain(id int, ch <-chan string, dec func()) {
	for {
		select {
		case path := <-ch:
			dec()
			d.remove(context.Background(), id, path)
		default:
			return
		}
	}
}

func (d *Dispatcher) remove(ctx context.Context, id int, path string) {
	if err := d.remover.Remove(ctx, path); err != nil {
		d.log.Error().Err(err).Str("path", path).Int("worker_id", id).Msg("image removal failed")
		return
	}
	d.log.Debug().Str("path", path).Int("worker_id", id).Msg("image removed")
}
