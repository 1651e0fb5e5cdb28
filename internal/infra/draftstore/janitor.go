package draftstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"restoree/internal/shared/async"
	"restoree/internal/shared/logging"

	"github.com/robfig/cron/v3"
)

// Janitor deletes drafts left idle longer than TTL.
type Janitor struct {
	Pruner Pruner
	TTL    time.Duration
	Now    func() time.Time
	Logger logging.Logger
}

// Sweep executes a single cleanup pass.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	if j == nil || j.Pruner == nil {
		return 0, errors.New("draft janitor requires a pruner")
	}
	if j.TTL <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	if j.Now != nil {
		now = j.Now()
	}
	return j.Pruner.Prune(ctx, now.Add(-j.TTL))
}

// Start runs Sweep on the cron schedule until ctx is done or the returned
// stop function is called.
func (j *Janitor) Start(ctx context.Context, schedule string) (func(), error) {
	logger := logging.OrNop(j.Logger)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(schedule, func() {
		removed, err := j.Sweep(ctx)
		if err != nil {
			logger.Warn("Draft sweep failed: %v", err)
			return
		}
		if removed > 0 {
			logger.Info("Draft sweep removed %d idle drafts", removed)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()

	done := make(chan struct{})
	async.Go(logger, "draft.janitor", func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		<-c.Stop().Done()
	})

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}
