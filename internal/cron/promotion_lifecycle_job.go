package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/merchware/discount-engine/pkg/logger"
)

type PromotionLifecycleJobParams struct {
	Logger     *logger.Logger
	Repository promotionLifecycleRepo
}

type promotionLifecycleRepo interface {
	ActivateScheduled(ctx context.Context, now time.Time) (int64, error)
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
	ExpireExhausted(ctx context.Context) (int64, error)
}

func NewPromotionLifecycleJob(params PromotionLifecycleJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	return &promotionLifecycleJob{
		logg: params.Logger,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

type promotionLifecycleJob struct {
	logg *logger.Logger
	repo promotionLifecycleRepo
	now  func() time.Time
}

func (j *promotionLifecycleJob) Name() string { return "promotion-lifecycle" }

// Run applies the three lifecycle transitions in order. Activation goes
// first so a window that opened and closed within one tick still ends
// expired, never transiently active in the stored record. Each transition
// is attempted even when an earlier one fails; the errors are combined.
func (j *promotionLifecycleJob) Run(ctx context.Context) error {
	now := j.now().UTC()

	var errs error
	activated, err := j.repo.ActivateScheduled(ctx, now)
	errs = multierr.Append(errs, err)

	expired, err := j.repo.ExpireEnded(ctx, now)
	errs = multierr.Append(errs, err)

	drained, err := j.repo.ExpireExhausted(ctx)
	errs = multierr.Append(errs, err)

	if errs != nil {
		return fmt.Errorf("promotion lifecycle sweep: %w", errs)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"activated":     activated,
		"expired_ended": expired,
		"expired_usage": drained,
	})
	j.logg.Info(logCtx, "promotion lifecycle sweep complete")
	return nil
}
