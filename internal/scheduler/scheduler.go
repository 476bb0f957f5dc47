package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/clock"
	invitationdomain "github.com/smallbiznis/internlink/internal/invitation/domain"
	obsmetrics "github.com/smallbiznis/internlink/internal/observability/metrics"
	"github.com/smallbiznis/internlink/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobExpireInvitations = "expire_invitations"

var ErrInvalidConfig = errors.New("invalid scheduler config")

type Params struct {
	fx.In

	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Invitations invitationdomain.Service
	Locker      *ratelimit.Locker `optional:"true"`
	Config      Config            `optional:"true"`
}

type Scheduler struct {
	log         *zap.Logger
	cfg         Config
	genID       *snowflake.Node
	clock       clock.Clock
	invitations invitationdomain.Service
	locker      *ratelimit.Locker
	hour        int
	minute      int

	// sleep blocks for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
}

type job struct {
	name     string
	resource string
	run      func(ctx context.Context) (int64, error)
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Invitations == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	hour, minute, err := parseSweepAt(cfg.SweepAt)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:         cfg,
		genID:       p.GenID,
		clock:       p.Clock,
		invitations: p.Invitations,
		locker:      p.Locker,
		hour:        hour,
		minute:      minute,
		sleep:       sleepContext,
	}, nil
}

// NextRun returns the first sweep time strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunForever sweeps once a day until ctx is cancelled. Job failures are
// logged and never stop the loop.
func (s *Scheduler) RunForever(ctx context.Context) {
	schedMetrics := obsmetrics.Scheduler()

	if s.cfg.RunOnStart {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
	}

	for {
		nextRun := s.NextRun(s.clock.Now())
		s.log.Debug("scheduler.sleep", zap.Time("next_run", nextRun))
		if err := s.sleep(ctx, nextRun.Sub(s.clock.Now())); err != nil {
			s.log.Info("scheduler stopped")
			return
		}

		schedMetrics.ObserveRunLoopLag(s.clock.Now().Sub(nextRun))
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
	}
}

// RunOnce runs every enabled job and joins their errors.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	for _, j := range s.jobs() {
		if !s.isJobEnabled(j.name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, j, s.cfg.JobTimeout))
	}
	return err
}

func (s *Scheduler) jobs() []job {
	return []job{
		{name: JobExpireInvitations, resource: "invitations", run: s.ExpireInvitationsJob},
	}
}

func (s *Scheduler) ExpireInvitationsJob(ctx context.Context) (int64, error) {
	return s.invitations.ExpireStale(ctx, s.clock.Now())
}

func (s *Scheduler) runJob(parent context.Context, j job, timeout time.Duration) (err error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if s.locker != nil {
		release, ok, lockErr := s.locker.Acquire(ctx, "internlink:scheduler:"+j.name, s.cfg.LockTTL)
		switch {
		case lockErr != nil:
			s.log.Warn("scheduler lock unavailable, running unlocked", zap.String("job", j.name), zap.Error(lockErr))
		case !ok:
			s.log.Info("scheduler.job.skipped", zap.String("job", j.name), zap.String("reason", "locked"))
			return nil
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					s.log.Warn("scheduler lock release failed", zap.String("job", j.name), zap.Error(err))
				}
			}()
		}
	}

	ctx, run := s.startJobRun(ctx, j.name)
	s.logJobStart(ctx, run)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(j.name)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", obsmetrics.ErrJobPanicked, j.name, r)
		}
		schedMetrics.ObserveJobDuration(j.name, time.Since(start))
		err = s.finishJob(ctx, run, j, err)
	}()

	processed, err := j.run(ctx)
	run.AddProcessed(processed)
	schedMetrics.AddBatchProcessed(j.name, j.resource, int(processed))
	return err
}

// finishJob records the outcome. Timeouts are soft: counted and logged but
// not returned.
func (s *Scheduler) finishJob(ctx context.Context, run *jobRun, j job, err error) error {
	schedMetrics := obsmetrics.Scheduler()
	if err == nil {
		schedMetrics.SetLastSuccess(j.name, s.clock.Now())
		s.logJobFinish(ctx, run)
		return nil
	}

	run.IncError()
	s.logJobFinish(ctx, run)
	schedMetrics.IncJobError(j.name, err)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		schedMetrics.IncJobTimeout(j.name)
		s.logger(ctx).Warn("job timed out",
			zap.String("job", j.name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}
	s.logSchedulerError(ctx, run, "scheduler.job.error", j.name, err)
	return fmt.Errorf("%s: %w", j.name, err)
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, name := range s.cfg.EnabledJobs {
		if strings.EqualFold(strings.TrimSpace(name), jobName) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
