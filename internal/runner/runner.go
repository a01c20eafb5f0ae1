// Package runner provides an optional, per-symbol sharded dispatcher for
// hosting applications that want to parallelize book maintenance across
// symbols (spec §5: "the core offers no internal synchronization"; a
// hosting application shards by symbol and ensures each book is touched
// by at most one worker). It generalizes the teacher's WorkerPool
// (generic task channel + tomb-supervised goroutines) from TCP connection
// handling to symbol-sharded message dispatch.
package runner

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	tomb "gopkg.in/tomb.v2"

	"ironbook/internal/diagnostics"
	"ironbook/internal/l3book"
	"ironbook/internal/message"
	"ironbook/internal/registry"
)

const defaultChannelSize = 256

// worker owns a disjoint subset of symbols and its own Registry, so the
// Registry itself never needs to be thread-safe (spec §4.D).
type worker struct {
	registry *registry.Registry
	messages chan message.Message
}

// Runner fans messages out to a fixed pool of workers by symbol hash.
// Every message for a given symbol always lands on the same worker's
// channel, and channels are FIFO, so per-symbol ordering is preserved
// even though workers run concurrently (spec §5).
type Runner struct {
	workers []*worker

	mu sync.Mutex
	t  *tomb.Tomb
}

// New constructs a Runner with nWorkers shards, each reporting
// diagnostics through sink.
func New(nWorkers int, sink diagnostics.Sink) *Runner {
	if nWorkers < 1 {
		nWorkers = 1
	}
	workers := make([]*worker, nWorkers)
	for i := range workers {
		workers[i] = &worker{
			registry: registry.New(sink),
			messages: make(chan message.Message, defaultChannelSize),
		}
	}
	return &Runner{workers: workers}
}

// RegisterL3 pre-registers L3 construction parameters for symbol on
// whichever worker will own it, mirroring registry.Registry.RegisterL3.
func (r *Runner) RegisterL3(symbol string, cfg l3book.Config) error {
	return r.workerFor(symbol).registry.RegisterL3(symbol, cfg)
}

func (r *Runner) workerFor(symbol string) *worker {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	idx := int(h.Sum32() % uint32(len(r.workers)))
	return r.workers[idx]
}

// Submit enqueues msg onto the worker responsible for its symbol. Submit
// itself does not block on processing, only on the worker's channel
// filling up.
func (r *Runner) Submit(symbol string, msg message.Message) {
	r.workerFor(symbol).messages <- msg
}

// Handle returns the book handle for symbol from whichever worker owns
// it, for inspection (printing book/BBO state, tests).
func (r *Runner) Handle(symbol string) (*registry.Handle, bool) {
	return r.workerFor(symbol).registry.Handle(symbol)
}

// Run starts one tomb-supervised goroutine per worker and blocks until
// ctx is cancelled and every worker has drained.
func (r *Runner) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)
	r.mu.Lock()
	r.t = t
	r.mu.Unlock()
	for _, w := range r.workers {
		w := w
		t.Go(func() error {
			return runWorker(t, w)
		})
	}
	return t.Wait()
}

func runWorker(t *tomb.Tomb, w *worker) error {
	for {
		select {
		case <-t.Dying():
			for {
				select {
				case msg := <-w.messages:
					w.registry.Dispatch(msg)
				default:
					return nil
				}
			}
		case msg := <-w.messages:
			w.registry.Dispatch(msg)
		}
	}
}

// Stop signals every worker to exit and waits for them to drain.
func (r *Runner) Stop() error {
	r.mu.Lock()
	t := r.t
	r.mu.Unlock()
	if t == nil {
		return nil
	}
	t.Kill(nil)
	if err := t.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
