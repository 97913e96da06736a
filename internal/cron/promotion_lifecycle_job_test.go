package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/merchware/discount-engine/pkg/logger"
)

func TestPromotionLifecycleJobRunsTransitionsInOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakePromotionLifecycleRepo{}
	job := newPromotionLifecycleJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"activate", "expire_ended", "expire_exhausted"}
	if len(repo.calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), repo.calls)
	}
	for i, call := range want {
		if repo.calls[i] != call {
			t.Fatalf("expected call %d to be %s, got %s", i, call, repo.calls[i])
		}
	}
	if !repo.lastNow.Equal(now.UTC()) {
		t.Fatalf("expected now %s, got %s", now.UTC(), repo.lastNow)
	}
}

func TestPromotionLifecycleJobKeepsSweepingOnError(t *testing.T) {
	repo := &fakePromotionLifecycleRepo{activateErr: errors.New("boom")}
	job := newPromotionLifecycleJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	// the failing first transition must not stop the later ones
	if len(repo.calls) != 3 {
		t.Fatalf("expected all 3 transitions attempted, got %v", repo.calls)
	}
}

func newPromotionLifecycleJob(t *testing.T, repo *fakePromotionLifecycleRepo) *promotionLifecycleJob {
	t.Helper()
	jobIface, err := NewPromotionLifecycleJob(PromotionLifecycleJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewPromotionLifecycleJob: %v", err)
	}
	job, ok := jobIface.(*promotionLifecycleJob)
	if !ok {
		t.Fatalf("expected promotionLifecycleJob, got %T", jobIface)
	}
	return job
}

type fakePromotionLifecycleRepo struct {
	calls       []string
	lastNow     time.Time
	activateErr error
}

func (f *fakePromotionLifecycleRepo) ActivateScheduled(_ context.Context, now time.Time) (int64, error) {
	f.calls = append(f.calls, "activate")
	f.lastNow = now
	if f.activateErr != nil {
		return 0, f.activateErr
	}
	return 2, nil
}

func (f *fakePromotionLifecycleRepo) ExpireEnded(_ context.Context, now time.Time) (int64, error) {
	f.calls = append(f.calls, "expire_ended")
	f.lastNow = now
	return 1, nil
}

func (f *fakePromotionLifecycleRepo) ExpireExhausted(_ context.Context) (int64, error) {
	f.calls = append(f.calls, "expire_exhausted")
	return 0, nil
}
