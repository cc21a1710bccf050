package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Generator evaluates and delivers the notifications of one parent.
type Generator interface {
	ParentIDs(ctx context.Context) ([]string, error)
	GenerateParentNotifications(ctx context.Context, parentID string) ([]Notification, error)
}

// Job periodically runs the notification rules for every parent.
type Job struct {
	gen      Generator
	interval time.Duration
}

// NewJob creates a job that sweeps every interval.
func NewJob(gen Generator, interval time.Duration) *Job {
	return &Job{gen: gen, interval: interval}
}

// RunOnce sweeps all parents and returns the number of notifications
// created. A failure for one parent does not stop the others.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	parents, err := j.gen.ParentIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list parents: %w", err)
	}

	created := 0
	var errs []error
	for _, id := range parents {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		ns, err := j.gen.GenerateParentNotifications(ctx, id)
		if err != nil {
			slog.Error("generate parent notifications", "parent_id", id, "error", err)
			errs = append(errs, fmt.Errorf("parent %s: %w", id, err))
			continue
		}
		created += len(ns)
	}
	return created, errors.Join(errs...)
}

// Run sweeps once immediately and then every interval until ctx is done.
func (j *Job) Run(ctx context.Context) {
	if j.interval <= 0 {
		return
	}
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		n, err := j.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			slog.Warn("notification sweep finished with errors", "created", n, "error", err)
		} else if n > 0 {
			slog.Info("notification sweep finished", "created", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
