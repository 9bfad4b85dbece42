package watcher

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// batcher coalesces rapid per-path events into one batch per quiet window.
// An editor save typically fires several events for the same file; the index
// run is cheap but not that cheap.
type batcher struct {
	window  time.Duration
	mu      sync.Mutex
	dirty   map[string]struct{}
	timer   *time.Timer
	out     chan []string
	stopped bool
}

func newBatcher(window time.Duration) *batcher {
	return &batcher{
		window: window,
		dirty:  make(map[string]struct{}),
		out:    make(chan []string, 8),
	}
}

// add marks a path dirty and (re)arms the flush timer.
func (b *batcher) add(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}
	b.dirty[path] = struct{}{}

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.window, b.flush)
}

func (b *batcher) flush() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped || len(b.dirty) == 0 {
		return
	}

	batch := make([]string, 0, len(b.dirty))
	for path := range b.dirty {
		batch = append(batch, path)
	}
	sort.Strings(batch)
	b.dirty = make(map[string]struct{})

	select {
	case b.out <- batch:
	default:
		slog.Warn("watch_batch_dropped", slog.Int("size", len(batch)))
	}
}

// stop closes the output channel. Safe to call once.
func (b *batcher) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
	}
	close(b.out)
}
