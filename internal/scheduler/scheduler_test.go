package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/smallbiznis/internlink/internal/clock"
	invitationdomain "github.com/smallbiznis/internlink/internal/invitation/domain"
	obsmetrics "github.com/smallbiznis/internlink/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeInvitations struct {
	invitationdomain.Service

	mu     sync.Mutex
	calls  []time.Time
	expire func(ctx context.Context, now time.Time) (int64, error)
}

func (f *fakeInvitations) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, now)
	f.mu.Unlock()
	if f.expire != nil {
		return f.expire(ctx, now)
	}
	return 0, nil
}

func (f *fakeInvitations) Calls() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.calls...)
}

func newTestScheduler(t *testing.T, clk clock.Clock, invitations invitationdomain.Service, cfg Config) *Scheduler {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	s, err := New(Params{
		Log:         zaptest.NewLogger(t),
		GenID:       node,
		Clock:       clk,
		Invitations: invitations,
		Config:      cfg,
	})
	require.NoError(t, err)
	return s
}

func useRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	registry := prometheus.NewRegistry()
	obsmetrics.ResetSchedulerMetricsForTest(registry)
	t.Cleanup(func() { obsmetrics.ResetSchedulerMetricsForTest(prometheus.NewRegistry()) })
	return registry
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			require.NotNil(t, metric.Counter, "metric %s is not a counter", name)
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}

func jobLabels(extra map[string]string) map[string]string {
	labels := map[string]string{
		"service": "internlink",
		"env":     "test",
		"job":     JobExpireInvitations,
	}
	for k, v := range extra {
		labels[k] = v
	}
	return labels
}

func TestNewRejectsBadSweepTime(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	_, err = New(Params{
		Log:         zaptest.NewLogger(t),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Now()),
		Invitations: &fakeInvitations{},
		Config:      Config{SweepAt: "25:99"},
	})
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = New(Params{Log: zaptest.NewLogger(t)})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestNextRun(t *testing.T) {
	s := newTestScheduler(t, clock.NewFakeClock(time.Now()), &fakeInvitations{}, Config{SweepAt: "03:00"})

	day := func(d, h, m int) time.Time { return time.Date(2026, time.March, d, h, m, 0, 0, time.UTC) }
	assert.Equal(t, day(10, 3, 0), s.NextRun(day(10, 2, 0)))
	assert.Equal(t, day(11, 3, 0), s.NextRun(day(10, 3, 0)))
	assert.Equal(t, day(11, 3, 0), s.NextRun(day(10, 17, 45)))

	est := time.FixedZone("EST", -5*3600)
	assert.Equal(t, day(11, 3, 0), s.NextRun(time.Date(2026, time.March, 10, 21, 0, 0, 0, est)))
}

func TestRunOnceRecordsProcessedCount(t *testing.T) {
	registry := useRegistry(t)
	clk := clock.NewFakeClock(time.Date(2026, time.March, 10, 3, 0, 0, 0, time.UTC))
	invitations := &fakeInvitations{expire: func(context.Context, time.Time) (int64, error) { return 4, nil }}
	s := newTestScheduler(t, clk, invitations, Config{})

	require.NoError(t, s.RunOnce(context.Background()))

	require.Len(t, invitations.Calls(), 1)
	assert.Equal(t, clk.Now(), invitations.Calls()[0])
	assert.Equal(t, 1.0, getCounterValue(t, registry, "internlink_scheduler_job_runs_total", jobLabels(nil)))
	assert.Equal(t, 4.0, getCounterValue(t, registry, "internlink_scheduler_batch_processed_total",
		jobLabels(map[string]string{"resource": "invitations"})))
}

func TestRunOnceRecoversPanic(t *testing.T) {
	registry := useRegistry(t)
	invitations := &fakeInvitations{expire: func(context.Context, time.Time) (int64, error) { panic("boom") }}
	s := newTestScheduler(t, clock.NewFakeClock(time.Now()), invitations, Config{})

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, obsmetrics.ErrJobPanicked))
	assert.Equal(t, 1.0, getCounterValue(t, registry, "internlink_scheduler_job_errors_total",
		jobLabels(map[string]string{"reason": obsmetrics.SchedulerJobReasonPanic})))
}

func TestRunOnceReturnsJobError(t *testing.T) {
	useRegistry(t)
	failure := errors.New("database is gone")
	invitations := &fakeInvitations{expire: func(context.Context, time.Time) (int64, error) { return 0, failure }}
	s := newTestScheduler(t, clock.NewFakeClock(time.Now()), invitations, Config{})

	err := s.RunOnce(context.Background())
	assert.True(t, errors.Is(err, failure))
}

func TestRunJobTimeoutIsSoft(t *testing.T) {
	registry := useRegistry(t)
	invitations := &fakeInvitations{expire: func(ctx context.Context, _ time.Time) (int64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}}
	s := newTestScheduler(t, clock.NewFakeClock(time.Now()), invitations, Config{JobTimeout: 5 * time.Millisecond})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1.0, getCounterValue(t, registry, "internlink_scheduler_job_timeouts_total", jobLabels(nil)))
}

func TestDisabledJobIsSkipped(t *testing.T) {
	useRegistry(t)
	invitations := &fakeInvitations{}
	s := newTestScheduler(t, clock.NewFakeClock(time.Now()), invitations, Config{EnabledJobs: []string{"something_else"}})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Empty(t, invitations.Calls())
}

func TestRunForeverSweepsDailyAtConfiguredTime(t *testing.T) {
	useRegistry(t)
	clk := clock.NewFakeClock(time.Date(2026, time.March, 10, 1, 0, 0, 0, time.UTC))
	invitations := &fakeInvitations{expire: func(context.Context, time.Time) (int64, error) {
		return 0, errors.New("transient")
	}}
	s := newTestScheduler(t, clk, invitations, Config{SweepAt: "03:00"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var waits []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		if len(waits) == 2 {
			cancel()
			return ctx.Err()
		}
		waits = append(waits, d)
		clk.Advance(d)
		return nil
	}

	s.RunForever(ctx)

	assert.Equal(t, []time.Duration{2 * time.Hour, 24 * time.Hour}, waits)
	assert.Equal(t, []time.Time{
		time.Date(2026, time.March, 10, 3, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 11, 3, 0, 0, 0, time.UTC),
	}, invitations.Calls())
}

func TestRunForeverRunsOnStart(t *testing.T) {
	useRegistry(t)
	invitations := &fakeInvitations{}
	s := newTestScheduler(t, clock.NewFakeClock(time.Now()), invitations, Config{RunOnStart: true})

	ctx, cancel := context.WithCancel(context.Background())
	s.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}
	s.RunForever(ctx)

	assert.Len(t, invitations.Calls(), 1)
}

func TestRunForeverStopsDuringWait(t *testing.T) {
	useRegistry(t)
	s := newTestScheduler(t, clock.SystemClock{}, &fakeInvitations{}, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.RunForever(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
