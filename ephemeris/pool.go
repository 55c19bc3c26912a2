// Package ephemeris evaluates many element sets over a common time grid with a
// fixed pool of goroutines.
package ephemeris

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/edpier/sky-sub002/sgp4"
)

// Job is one element set to evaluate.
type Job struct {
	ID         int // catalog number, used in rows and logs
	Name       string
	Propagator *sgp4.Propagator
}

// Grid is a sequence of Count sample times, in minutes since each job's
// epoch: Start, Start+Step, ...
type Grid struct {
	Start float64
	Step  float64
	Count int
}

// At returns the i-th sample time.
func (g Grid) At(i int) float64 {
	return g.Start + float64(i)*g.Step
}

func (g Grid) validate() error {
	if g.Count < 1 {
		return errors.Errorf("grid needs at least one sample, got %d", g.Count)
	}
	if g.Count > 1 && g.Step == 0 {
		return errors.New("grid step must be non-zero")
	}
	return nil
}

// Row is one sample of one job. Err is set, and State is zero, when the
// model no longer applies at Tsince.
type Row struct {
	JobID  int
	Name   string
	Tsince float64 // minutes since epoch
	Time   time.Time
	State  sgp4.MotionState
	Err    error
}

// Pool manages a fixed number of goroutines for parallel propagation.
type Pool struct {
	workers int
	frame   Frame
	logger  log.Logger
	metrics *Metrics
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger logs failed samples to logger.
func WithLogger(logger log.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// WithMetrics records sample and batch metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Pool) { p.metrics = m }
}

// WithFrame selects the output frame. The default is FrameTEME.
func WithFrame(f Frame) Option {
	return func(p *Pool) { p.frame = f }
}

// NewPool creates a pool with the given number of workers. Values below one
// select runtime.NumCPU().
func NewPool(workers int, opts ...Option) *Pool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		workers: workers,
		logger:  log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run evaluates every job on the grid. Rows are returned job by job in the
// order of jobs, each in grid order. Decayed samples are reported on their row
// and do not stop the batch; only a cancelled ctx or an invalid grid does.
func (p *Pool) Run(ctx context.Context, jobs []Job, grid Grid) ([]Row, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() { p.metrics.observeBatch(time.Since(start).Seconds()) }()

	rows := make([]Row, len(jobs)*grid.Count)
	indices := make(chan int, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range indices {
				if ctx.Err() != nil {
					continue
				}
				p.runJob(jobs[j], grid, rows[j*grid.Count:(j+1)*grid.Count])
			}
		}()
	}

feed:
	for j := range jobs {
		select {
		case indices <- j:
		case <-ctx.Done():
			break feed
		}
	}
	close(indices)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "ephemeris batch cancelled")
	}
	return rows, nil
}

// runJob fills out, one row per grid sample. Each row is written by exactly
// one goroutine.
func (p *Pool) runJob(job Job, grid Grid, out []Row) {
	var failures int
	for i := range out {
		tsince := grid.At(i)
		row := Row{
			JobID:  job.ID,
			Name:   job.Name,
			Tsince: tsince,
			Time:   job.Propagator.Epoch().Add(time.Duration(tsince * float64(time.Minute))),
		}
		state, err := job.Propagator.Propagate(tsince)
		switch {
		case err == nil:
			if p.frame == FrameEarthFixed {
				state = EarthFixed(state, row.Time)
			}
			row.State = state
			p.metrics.observeSample(resultOK)
		case errors.Is(err, sgp4.ErrDecayed):
			row.Err = err
			p.metrics.observeSample(resultDecayed)
		default:
			row.Err = err
			p.metrics.observeSample(resultError)
		}
		if row.Err != nil {
			// one warning per job
			if failures == 0 {
				level.Warn(p.logger).Log("msg", "propagation failed", "norad_id", job.ID, "tsince", tsince, "err", row.Err)
			}
			failures++
		}
		out[i] = row
	}
	if failures > 1 {
		level.Debug(p.logger).Log("msg", "samples failed", "norad_id", job.ID, "count", failures)
	}
}
