package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"

	"keytally/src/input"
	"keytally/src/lib"
	"keytally/src/services"
	"keytally/src/storage"
)

// State is the tracker lifecycle position.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateFlushing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateFlushing:
		return "flushing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Source delivers input events to a handler until the handler stops it.
type Source interface {
	Run(ctx context.Context, h input.Handler) error
}

// Options override tracker collaborators. Zero values select the defaults.
type Options struct {
	// Repo replaces the store opened from Config.DatabaseURL.
	Repo    storage.CountsRepo
	Clock   quartz.Clock
	Console io.Writer
	Logger  *slog.Logger
}

// Tracker wires the counter store, ingestion, flushing and the durable store.
type Tracker struct {
	cfg      lib.Config
	logger   *slog.Logger
	metrics  *lib.Metrics
	repo     storage.CountsRepo
	store    *services.CounterStore
	reporter *services.Reporter
	flusher  *services.Flusher
	ingestor *services.Ingestor

	httpServer  *http.Server
	state       atomic.Int32
	stopFlusher context.CancelFunc
	flushWaiter quartz.Waiter
}

// New prepares the durable store and seeds the counters from it. Any
// failure aborts startup; the tracker never runs against an uninitialized
// store.
func New(ctx context.Context, cfg lib.Config, opts Options) (*Tracker, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = lib.NewLogger(cfg.LogLevel, console)
	}
	clock := opts.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	metrics := lib.NewMetrics()

	vocab := services.NewVocabulary()
	store := services.NewCounterStore(vocab)

	repo := opts.Repo
	if repo == nil {
		var err error
		repo, err = storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
	}

	if err := repo.BootstrapSchema(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	if err := repo.InitializeVocabularyRows(ctx, vocab.IDs()); err != nil {
		repo.Close()
		return nil, fmt.Errorf("initialize vocabulary rows: %w", err)
	}
	prior, err := repo.LoadAll(ctx)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("load counts: %w", err)
	}
	store.Merge(prior)

	reporter := services.NewReporter(console)
	reporter.Loaded(store.Summarize())
	logger.Info("counts loaded", "rows", len(prior))

	t := &Tracker{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		repo:     repo,
		store:    store,
		reporter: reporter,
		flusher:  services.NewFlusher(store, repo, reporter, metrics, logger, clock, cfg.FlushInterval),
	}
	t.ingestor = services.NewIngestor(vocab, store, metrics, logger, t.shutdown)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "state": t.State().String()})
		})
		mux.Handle("/metrics", metrics.Handler())
		t.httpServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return t, nil
}

func (t *Tracker) State() State {
	return State(t.state.Load())
}

func (t *Tracker) Counters() *services.CounterStore {
	return t.store
}

// Run starts periodic flushing and feeds src events into the counters. It
// returns once the stop key has been handled and the final flush is done;
// a non-nil error means the session was not durably recorded.
func (t *Tracker) Run(ctx context.Context, src Source) error {
	if !t.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		return fmt.Errorf("tracker already started")
	}

	flushCtx, cancel := context.WithCancel(ctx)
	t.stopFlusher = cancel
	t.flushWaiter = t.flusher.Start(flushCtx)

	if t.httpServer != nil {
		go func() {
			t.logger.Info("metrics endpoint starting", "addr", t.cfg.MetricsAddr)
			if err := t.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				t.logger.Error("metrics endpoint failed", "error", err)
			}
		}()
	}

	t.reporter.Status("Starting mouse and keyboard listener...")
	srcErr := src.Run(ctx, t.ingestor)

	if t.ingestor.Stopped() {
		return t.ingestor.Err()
	}

	// The source ended without the stop key; still record the session.
	t.logger.Warn("input source ended before stop key", "error", srcErr)
	stopErr := t.shutdown(context.WithoutCancel(ctx))
	if srcErr != nil {
		return errors.Join(fmt.Errorf("input source: %w", srcErr), stopErr)
	}
	return stopErr
}

// shutdown moves Running -> Flushing -> Terminated. The final flush happens
// after the periodic flusher has drained, so it is the last write.
//
// It runs on the input source's goroutine. Draining waits only for a tick
// already in flight: cancelling the flusher context aborts that tick's
// store calls, which all take ctx, so the wait is bounded by context-aware
// I/O rather than by the flush interval.
func (t *Tracker) shutdown(ctx context.Context) error {
	if !t.state.CompareAndSwap(int32(StateRunning), int32(StateFlushing)) {
		return nil
	}
	t.reporter.Status("Stopping program...")

	t.stopFlusher()
	_ = t.flushWaiter.Wait()

	flushErr := t.flusher.Flush(ctx)
	if flushErr != nil {
		t.logger.Error("final flush failed", "error", flushErr)
	}
	t.reporter.Session(t.store.Summarize())

	if t.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := t.httpServer.Shutdown(shutdownCtx); err != nil {
			t.logger.Warn("metrics endpoint shutdown", "error", err)
		}
		cancel()
	}
	t.repo.Close()
	t.state.Store(int32(StateTerminated))

	if flushErr != nil {
		return fmt.Errorf("final flush: %w", flushErr)
	}
	return nil
}

// Close releases the durable store of a tracker that never ran.
func (t *Tracker) Close() {
	if t.state.CompareAndSwap(int32(StateStarting), int32(StateTerminated)) {
		t.repo.Close()
	}
}
