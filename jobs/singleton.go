package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// ErrSkipped reports that another worker replica holds the job lock.
var ErrSkipped = errors.New("jobs: run skipped, lock held elsewhere")

// Singleton serializes scheduled runs across worker replicas. A nil
// Singleton, or one without a locker, runs fn directly.
type Singleton struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewSingleton constructs the lock helper. ttl bounds how long a crashed run
// can block the next one.
func NewSingleton(locker *redislock.Client, ttl time.Duration) *Singleton {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Singleton{locker: locker, ttl: ttl}
}

// Run executes fn while holding the lock of job.
func (s *Singleton) Run(ctx context.Context, job string, fn func(context.Context) error) error {
	if s == nil || s.locker == nil {
		return fn(ctx)
	}
	lock, err := s.locker.Obtain(ctx, shared.JobLockKey(job), s.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return ErrSkipped
	}
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()
	return fn(ctx)
}
