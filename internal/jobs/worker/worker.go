package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
	"github.com/Jrogbaaa/Project-X-sub001/internal/services"
)

// Worker runs offline content enrichment on a fixed interval. Passes never
// overlap; a pass that outlives the interval delays the next tick.
type Worker struct {
	log      *logger.Logger
	enrich   services.EnrichmentService
	interval time.Duration
	wg       sync.WaitGroup
}

func NewWorker(baseLog *logger.Logger, enrich services.EnrichmentService, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Worker{
		log:      baseLog.With("component", "EnrichmentWorker"),
		enrich:   enrich,
		interval: interval,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting enrichment worker", "interval", w.interval.String())
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.runLoop(ctx)
	}()
}

// Wait blocks until the loop started by Start has returned.
func (w *Worker) Wait() { w.wg.Wait() }

func (w *Worker) runLoop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Enrichment worker stopped")
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.log.Warn("Enrichment pass failed", "error", err)
			}
		}
	}
}

// RunOnce executes a single pass, converting a panic into an error.
func (w *Worker) RunOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Enrichment pass panic", "panic", r)
			err = &panicError{Val: r}
		}
	}()
	sum, err := w.enrich.RefreshStale(ctx)
	if err != nil {
		return err
	}
	if sum.Profiles > 0 {
		w.log.Debug("Enrichment pass done", "profiles", sum.Profiles, "updated", sum.Updated, "failed", sum.Failed)
	}
	return nil
}

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
