package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-co-op/gocron/v2"
	"github.com/samgozman/fin-buddy/internal/utils"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

const (
	DefaultSweepInterval = time.Minute
	DefaultFlushInterval = 5 * time.Minute
	flushTimeout         = 25 * time.Second
)

// Sweeper is implemented by cooldown.Tracker.
type Sweeper interface {
	Sweep(now time.Time) int
}

// Flusher is implemented by archivist.Archivist.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Maintenance runs the periodic housekeeping: expired cooldown records are dropped
// and the cache snapshot is written to the archive store.
type Maintenance struct {
	scheduler gocron.Scheduler
	sweeper   Sweeper
	flusher   Flusher
	logger    *slog.Logger
	now       func() time.Time
}

// NewMaintenance schedules the housekeeping jobs. flusher may be nil when no store is configured.
func NewMaintenance(sweeper Sweeper, flusher Flusher, sweepEvery, flushEvery time.Duration, logger *slog.Logger) (*Maintenance, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, errlvl.Wrap(errors.Join(errCreateScheduler, err), errlvl.FATAL)
	}

	m := &Maintenance{
		scheduler: s,
		sweeper:   sweeper,
		flusher:   flusher,
		logger:    logger,
		now:       time.Now,
	}

	_, err = s.NewJob(
		gocron.DurationJob(sweepEvery),
		gocron.NewTask(m.SweepCooldowns()),
		gocron.WithName("cooldown-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, errlvl.Wrap(errors.Join(errScheduleJob, err), errlvl.FATAL)
	}

	if flusher != nil {
		_, err = s.NewJob(
			gocron.DurationJob(flushEvery),
			gocron.NewTask(m.FlushArchive()),
			gocron.WithName("archive-flush"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, errlvl.Wrap(errors.Join(errScheduleJob, err), errlvl.FATAL)
		}
	}

	return m, nil
}

// Jobs returns the names of the scheduled jobs.
func (m *Maintenance) Jobs() []string {
	jobs := m.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

// Run starts the scheduler and stops it when ctx is done.
func (m *Maintenance) Run(ctx context.Context) error {
	m.scheduler.Start()
	m.logger.Info("[Maintenance] started", "jobs", m.Jobs())

	<-ctx.Done()
	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Error("[Maintenance] shutdown", "error", err)
	}
	return ctx.Err()
}

// SweepCooldowns returns the job that drops expired failure records.
func (m *Maintenance) SweepCooldowns() JobFunc {
	return func() {
		if n := m.sweeper.Sweep(m.now()); n > 0 {
			m.logger.Info("[Maintenance] cooldowns expired", "symbols", n)
		}
	}
}

// FlushArchive returns the job that persists the cache snapshot.
func (m *Maintenance) FlushArchive() JobFunc {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()

		hub := sentry.CurrentHub().Clone()
		defer hub.Flush(2 * time.Second)

		if err := m.flusher.Flush(ctx); err != nil {
			m.logger.Log(ctx, errlvl.SlogLevel(err), "[Maintenance][FlushArchive]", "error", err)
			utils.CaptureSentryException("Maintenance.FlushArchive", hub, err, map[string]string{"job": "archive-flush"})
		}
	}
}
