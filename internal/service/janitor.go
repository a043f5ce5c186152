package service

import (
	"context"
	"time"

	"github.com/Payphone-Digital/lms/internal/metrics"
	ctxutil "github.com/Payphone-Digital/lms/pkg/context"
	"github.com/Payphone-Digital/lms/pkg/logger"
)

type sessionPurger interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type resetPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Janitor periodically removes expired reset rows and sessions that expired
// longer ago than the retention window. Revoked sessions stay around for
// audit until then.
type Janitor struct {
	sessions  sessionPurger
	resets    resetPurger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewJanitor(sessions sessionPurger, resets resetPurger, interval, retention time.Duration) *Janitor {
	return &Janitor{
		sessions:  sessions,
		resets:    resets,
		interval:  interval,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run blocks until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	if j.interval <= 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single cleanup pass.
func (j *Janitor) RunOnce(ctx context.Context) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RunOnce")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "janitor")

	now := j.now()

	resets, err := j.resets.DeleteExpired(ctx, now)
	if err != nil {
		logger.ErrorWithContext(ctx, "Janitor failed to purge password resets").
			Err(err).
			Log()
	} else {
		metrics.JanitorDeleted.WithLabelValues("password_reset").Add(float64(resets))
	}

	sessions, err := j.sessions.DeleteExpiredBefore(ctx, now.Add(-j.retention))
	if err != nil {
		logger.ErrorWithContext(ctx, "Janitor failed to purge sessions").
			Err(err).
			Log()
	} else {
		metrics.JanitorDeleted.WithLabelValues("session").Add(float64(sessions))
	}

	logger.DebugWithContext(ctx, "Janitor pass complete").
		Int64("resets_deleted", resets).
		Int64("sessions_deleted", sessions).
		Log()
}
