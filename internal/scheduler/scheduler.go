// Package scheduler drives the Generator Loop and Tracker Loop's periodic
// cadence (§5, §6 generatorPeriodSeconds/trackerPeriodSeconds) with
// robfig/cron/v3 instead of a hand-rolled time.Ticker supervisor — the
// teacher's go.mod already declares this dependency (unused in its
// shipped code); this finally gives it a job, corroborated by the
// cron.New()-driven polling loop in najim2004-mrcrypto-go's internal/loader.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler wraps a cron.Cron and enforces the §5 "no overlapping ticks"
// rule per registered job: if a tick is still running when the next fires,
// the next is skipped and an overrun counter increments.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

// New constructs a Scheduler. A dedicated cron instance (rather than the
// package-level default) keeps this core's scheduling independent of
// anything else that might import robfig/cron in the same process.
func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Job is one periodic task: a name (for logging/metrics) and the function
// to run each tick, given a context cancelled at shutdown.
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context)
	// OnOverrun is called (optionally) when a tick is skipped because the
	// previous invocation of this job had not finished.
	OnOverrun func(name string)
}

// Every registers a job on the given interval using cron's "@every"
// duration spec, with an atomic in-flight guard enforcing the overrun-skip
// rule (§5: "if a tick overruns, the next is skipped with an overrun
// counter").
func (s *Scheduler) Every(ctx context.Context, job Job) error {
	var inFlight int32

	_, err := s.cron.AddFunc("@every "+job.Interval.String(), func() {
		if !atomic.CompareAndSwapInt32(&inFlight, 0, 1) {
			s.logger.Warn().Str("job", job.Name).Msg("tick skipped: previous tick still running")
			if job.OnOverrun != nil {
				job.OnOverrun(job.Name)
			}
			return
		}
		defer atomic.StoreInt32(&inFlight, 0)

		select {
		case <-ctx.Done():
			return
		default:
		}
		job.Fn(ctx)
	})
	return err
}

// Start begins running all registered jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop blocks registered jobs from starting new runs and waits for any
// currently-running job to finish — the "next safe point" the global
// cancellation signal targets (§5).
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}
