package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"keytally/src/lib"
	"keytally/src/models"
)

var errStoreDown = errors.New("store down")

type upsertCall struct {
	counts map[models.InputID]int64
	at     time.Time
}

// memoryRepo is an in-memory CountsWriter.
type memoryRepo struct {
	mu        sync.Mutex
	rows      map[models.InputID]models.InputCount
	upserts   []upsertCall
	failNext  int
	reportErr error
	onUpsert  func()
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[models.InputID]models.InputCount)}
}

func (r *memoryRepo) UpsertSnapshot(_ context.Context, counts map[models.InputID]int64, at time.Time) error {
	if r.onUpsert != nil {
		r.onUpsert()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext > 0 {
		r.failNext--
		return errStoreDown
	}
	cp := make(map[models.InputID]int64, len(counts))
	for id, count := range counts {
		cp[id] = count
		r.rows[id] = models.InputCount{InputName: id, PressCount: count, LastUpdated: at}
	}
	r.upserts = append(r.upserts, upsertCall{counts: cp, at: at})
	return nil
}

func (r *memoryRepo) ReportTopCounts(context.Context) ([]models.InputCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reportErr != nil {
		return nil, r.reportErr
	}
	out := make([]models.InputCount, 0)
	for _, row := range r.rows {
		if row.PressCount > 0 {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PressCount != out[j].PressCount {
			return out[i].PressCount > out[j].PressCount
		}
		return out[i].InputName < out[j].InputName
	})
	return out, nil
}

func (r *memoryRepo) calls() []upsertCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]upsertCall(nil), r.upserts...)
}

// syncBuffer is a goroutine-safe bytes buffer for reporter output.
type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

func discardLogger() *slog.Logger {
	return lib.NewLogger("ERROR", io.Discard)
}
