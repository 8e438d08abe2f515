package scan

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Phase is a stage of a scan run.
type Phase int32

const (
	// PhaseIdle is the state before validation succeeds.
	PhaseIdle Phase = iota
	// PhaseScanning means the producer is walking while workers consume.
	PhaseScanning
	// PhaseDraining means the queue is closed and workers are finishing.
	PhaseDraining
	// PhaseDone means every worker has returned and the snapshot is taken.
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseScanning:
		return "scanning"
	case PhaseDraining:
		return "draining"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Orchestrator owns the queue and store of a single run.
type Orchestrator struct {
	cfg   *config
	queue *Queue
	store *Store
	phase atomic.Int32
}

// New validates opt and prepares a run. It returns a *RootError when the
// root is missing or not a directory; no goroutine has been started then.
func New(opt Options) (*Orchestrator, error) {
	cfg, err := resolve(opt)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:   cfg,
		queue: NewQueue(),
		store: NewStore(),
	}, nil
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	return Phase(o.phase.Load())
}

func (o *Orchestrator) setPhase(p Phase) {
	o.phase.Store(int32(p))
	o.cfg.log.Debug("phase", slog.String("phase", p.String()))
}

// Run starts the worker pool, walks the tree on the calling goroutine,
// waits for the workers to drain the queue and returns the snapshot.
//
// A walk that ends early (traversal error or cancelled ctx) still drains
// the workers; the returned stats then carry the reason in Aborted.
// Run must be called once per Orchestrator.
func (o *Orchestrator) Run(ctx context.Context) *Stats {
	start := time.Now()
	log := o.cfg.log

	o.setPhase(PhaseScanning)
	log.Debug("starting scan", slog.String("root", o.cfg.root), slog.Int("workers", o.cfg.workers))

	var pool errgroup.Group

	for i := range o.cfg.workers {
		w := newWorker(i, o.queue, o.store, &o.cfg.filters, log)

		pool.Go(func() error {
			w.run()

			return nil
		})
	}

	walkErr := newScanner(o.cfg.root, o.queue, o.store, &o.cfg.filters, log).scan(ctx)
	if walkErr != nil {
		log.Warn("walk ended early", slog.Any("error", walkErr))
	}

	o.setPhase(PhaseDraining)

	_ = pool.Wait() // workers never fail

	stats := o.store.Snapshot()
	stats.Root = o.cfg.root
	stats.Workers = o.cfg.workers
	stats.Elapsed = time.Since(start)

	if walkErr != nil {
		stats.Aborted = walkErr.Error()
	}

	o.setPhase(PhaseDone)

	return stats
}

// Run performs a complete scan with opt. Only configuration errors are
// returned; everything else is absorbed into the best-effort stats.
func Run(ctx context.Context, opt Options) (*Stats, error) {
	o, err := New(opt)
	if err != nil {
		return nil, err
	}

	return o.Run(ctx), nil
}
