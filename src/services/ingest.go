package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"keytally/src/lib"
	"keytally/src/models"
)

// StopFunc runs the shutdown sequence once the stop key is seen.
type StopFunc func(ctx context.Context) error

// Ingestor turns raw input events into counter increments. Its handlers are
// called on the input source's goroutine and never wait on the flusher.
type Ingestor struct {
	vocab   *Vocabulary
	store   *CounterStore
	metrics *lib.Metrics
	logger  *slog.Logger
	onStop  StopFunc

	stopped  atomic.Bool
	stopOnce sync.Once

	mu      sync.Mutex
	stopErr error
}

func NewIngestor(vocab *Vocabulary, store *CounterStore, metrics *lib.Metrics, logger *slog.Logger, onStop StopFunc) *Ingestor {
	return &Ingestor{
		vocab:   vocab,
		store:   store,
		metrics: metrics,
		logger:  logger,
		onStop:  onStop,
	}
}

// HandleKey counts a key press. It returns false once the stop key has been
// handled; the source must deliver no further events after that.
func (i *Ingestor) HandleKey(ctx context.Context, ev models.KeyEvent) bool {
	if i.stopped.Load() {
		return false
	}

	input, ok := i.vocab.ResolveKey(ev)
	if !ok {
		i.metrics.UnknownInput()
		i.logger.Warn("unknown input", "key", KeyName(ev), "error", ErrUnknownInput)
		return true
	}
	if input.ID == StopKey {
		i.stop(ctx)
		return false
	}

	i.count(input)
	return true
}

// HandleMouse counts a button press. Releases and untracked buttons are
// ignored without a diagnostic.
func (i *Ingestor) HandleMouse(_ context.Context, ev models.MouseEvent) bool {
	if i.stopped.Load() {
		return false
	}
	if input, ok := i.vocab.ResolveMouse(ev); ok {
		i.count(input)
	}
	return true
}

// Stopped reports whether the stop key has been handled.
func (i *Ingestor) Stopped() bool {
	return i.stopped.Load()
}

// Err returns the shutdown error, if the stop sequence failed.
func (i *Ingestor) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stopErr
}

func (i *Ingestor) count(input models.Input) {
	if err := i.store.Increment(input.ID); err != nil {
		i.logger.Error("increment resolved input", "input", input.ID, "error", err)
		return
	}
	i.metrics.InputCounted(input.Kind.String())
}

func (i *Ingestor) stop(ctx context.Context) {
	i.stopOnce.Do(func() {
		i.stopped.Store(true)
		if i.onStop == nil {
			return
		}
		err := i.onStop(ctx)
		i.mu.Lock()
		i.stopErr = err
		i.mu.Unlock()
	})
}
