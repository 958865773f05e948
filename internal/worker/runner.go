package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/dispatch/internal/pkg/logger"
)

// Runner invokes the pipeline on a fixed interval until stopped.
type Runner struct {
	pipeline *Pipeline
	interval time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewRunner creates a runner around a pipeline.
func NewRunner(pipeline *Pipeline, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Runner{pipeline: pipeline, interval: interval}
}

// Start launches the tick loop. Calling Start on a running runner is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.ctx, r.cancel = context.WithCancel(context.Background())

	r.wg.Add(1)
	go r.loop()

	logger.Info("Worker runner started", "interval", r.interval.String())
}

func (r *Runner) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// First tick immediately rather than one interval in.
	r.tick()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	n, err := r.pipeline.Tick(r.ctx)
	if err != nil {
		logger.Error("Worker tick failed", "groups_processed", n, "error", err.Error())
		return
	}
	if n > 0 {
		logger.Info("Worker tick finished", "groups_processed", n)
	}
}

// Stop halts the loop and waits for an in-flight tick to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.cancel()
	r.mu.Unlock()

	r.wg.Wait()
	logger.Info("Worker runner stopped")
}
