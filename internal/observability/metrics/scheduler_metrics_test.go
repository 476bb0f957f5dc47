package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/internlink/internal/apperr"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: SchedulerJobReasonDeadlineExceeded},
		{name: "panic", err: fmt.Errorf("expire_invitations: %w", ErrJobPanicked), want: SchedulerJobReasonPanic},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: SchedulerJobReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: SchedulerJobReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: SchedulerJobReasonUniqueViolation},
		{name: "unknown", err: errors.New("boom"), want: SchedulerJobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifySchedulerJobReason(tc.err))
		})
	}
}

func TestClassifySchedulerErrorType(t *testing.T) {
	assert.Equal(t, SchedulerErrorTypeBusinessRule, ClassifySchedulerErrorType(apperr.InvalidState("invalid_state", "x")))
	assert.Equal(t, SchedulerErrorTypeDB, ClassifySchedulerErrorType(&pgconn.PgError{Code: "08006"}))
	assert.Equal(t, SchedulerErrorTypeDeadlineExceeded, ClassifySchedulerErrorType(context.Canceled))
	assert.True(t, IsSchedulerErrorRetryable(&pgconn.PgError{Code: "40001"}))
	assert.False(t, IsSchedulerErrorRetryable(errors.New("boom")))
}

func TestSchedulerMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetSchedulerMetricsForTest(reg)
	t.Cleanup(func() { ResetSchedulerMetricsForTest(prometheus.NewRegistry()) })

	m := Scheduler()
	m.IncJobRun("expire_invitations")
	m.IncJobRun("expire_invitations")
	m.AddBatchProcessed("expire_invitations", "invitations", 4)
	m.AddBatchProcessed("expire_invitations", "invitations", 0)
	m.IncJobError("expire_invitations", context.DeadlineExceeded)
	m.SetLastSuccess("expire_invitations", time.Unix(1700000000, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("expire_invitations")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.batchProcessed.WithLabelValues("expire_invitations", "invitations")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobErrors.WithLabelValues("expire_invitations", SchedulerJobReasonDeadlineExceeded)))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.lastSuccess.WithLabelValues("expire_invitations")))
}
