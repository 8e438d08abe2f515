package scan

import (
	"log/slog"
	"os"
)

// osStat follows symlinks, so a link to a regular file is classified as one.
var osStat = os.Stat

// worker consumes entries from a Queue and merges regular files into a Store.
type worker struct {
	id      int
	queue   *Queue
	store   *Store
	filters *filters
	log     *slog.Logger
}

func newWorker(id int, queue *Queue, store *Store, f *filters, log *slog.Logger) *worker {
	return &worker{
		id:      id,
		queue:   queue,
		store:   store,
		filters: f,
		log:     log.With(slog.Int("worker", id)),
	}
}

// run pops entries until the queue is closed and drained.
// It never returns an error: entries that cannot be read are skipped.
func (w *worker) run() {
	processed := 0

	for {
		entry, ok := w.queue.Pop()
		if !ok {
			w.log.Debug("worker done", slog.Int("processed", processed))

			return
		}

		processed++

		if obs, ok := w.classify(entry); ok {
			w.store.Merge(obs)
		}
	}
}

// classify turns an entry into an observation. It reports false for
// anything that is not a regular file passing the filters.
func (w *worker) classify(entry Entry) (Observation, bool) {
	if entry.Type.IsDir() {
		return Observation{}, false
	}

	info, err := osStat(entry.Path)
	if err != nil {
		w.store.Skip()
		w.log.Debug("skipping entry", slog.String("path", entry.Path), slog.Any("error", err))

		return Observation{}, false
	}

	if !info.Mode().IsRegular() {
		return Observation{}, false
	}

	if info.Size() < w.filters.minSize {
		return Observation{}, false
	}

	if !w.filters.includeByExtension(entry.Path) {
		w.log.Debug("excluding file (extension filter)", slog.String("path", entry.Path))

		return Observation{}, false
	}

	return NewObservation(entry.Path, info.Size()), true
}
