// Package worker renders charts to PNG files in the background.
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/decades/internal/adapters/csvstore"
	"github.com/ewilliams-labs/decades/internal/core/ports"
	"github.com/ewilliams-labs/decades/internal/core/presenter"
)

// Job is one chart to render to Path.
type Job struct {
	ViewID string
	Chart  presenter.Chart
	Path   string
}

// Pool manages background workers for render jobs.
type Pool struct {
	renderer ports.ChartRenderer
	jobs     chan Job
	wg       sync.WaitGroup
	log      *zap.Logger

	done atomic.Int64
	mu   sync.Mutex
	errs []error
}

// NewPool creates a worker pool with the given queue size.
func NewPool(renderer ports.ChartRenderer, queueSize int, log *zap.Logger) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{renderer: renderer, jobs: make(chan Job, queueSize), log: log}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop closes the queue, waits for the workers, and returns every job
// failure joined into one error.
func (p *Pool) Stop() error {
	close(p.jobs)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}

// Submit queues a job, blocking while the queue is full.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker: submit %s: %w", job.Path, ctx.Err())
	}
}

// Rendered reports how many files have been written so far.
func (p *Pool) Rendered() int {
	return int(p.done.Load())
}

func (p *Pool) processJob(job Job) {
	if err := p.render(job); err != nil {
		p.log.Warn("render failed", zap.String("view", job.ViewID), zap.String("chart", job.Chart.ID), zap.Error(err))
		p.mu.Lock()
		p.errs = append(p.errs, err)
		p.mu.Unlock()
		return
	}
	p.done.Add(1)
	p.log.Debug("chart rendered", zap.String("view", job.ViewID), zap.String("path", job.Path))
}

func (p *Pool) render(job Job) error {
	var buf bytes.Buffer
	if err := p.renderer.RenderPNG(&buf, job.Chart); err != nil {
		return fmt.Errorf("worker: %s/%s: %w", job.ViewID, job.Chart.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(job.Path), 0o755); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	if err := csvstore.WriteAtomic(job.Path, buf.Bytes()); err != nil {
		return fmt.Errorf("worker: write %s: %w", job.Path, err)
	}
	return nil
}

// Plan lays out one job per chart: dir/<view>/<chart>.png.
func Plan(pages []presenter.Page, dir string) []Job {
	var jobs []Job
	for _, page := range pages {
		for _, c := range page.Charts() {
			jobs = append(jobs, Job{
				ViewID: page.ID,
				Chart:  c,
				Path:   filepath.Join(dir, page.ID, c.ID+".png"),
			})
		}
	}
	return jobs
}
