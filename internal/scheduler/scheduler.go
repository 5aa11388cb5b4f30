// Package scheduler drives the bot's single long-lived loop: drain the
// inbox, sweep for new posts, sweep for meta posts, repeat. All pacing
// lives here; the handlers themselves never sleep.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"transcribot/internal/config"
	"transcribot/internal/core"
)

const (
	// sweepGap is the minimum interval between discovery sweeps.
	sweepGap = 45 * time.Second

	debugSleep     = 15 * time.Second
	transientSleep = 60 * time.Second
)

// Sweeper is the scanner's discovery entry point.
type Sweeper interface {
	Sweep(ctx context.Context) ([]core.PostSummary, error)
}

// Engine is the slice of the lifecycle engine the scheduler drives.
type Engine interface {
	Discover(ctx context.Context, sum core.PostSummary) error
	MetaSweep(ctx context.Context) error
}

// Drainer empties the unread inbox.
type Drainer interface {
	Drain(ctx context.Context) error
}

type Scheduler struct {
	Logger  *slog.Logger
	Config  *config.Config
	Scanner Sweeper
	Engine  Engine
	Inbox   Drainer

	lastSweep time.Time
}

func (s *Scheduler) Init(context.Context) error {
	s.Logger = s.Logger.With("component", "scheduler.Scheduler")
	return nil
}

// Run loops until the context is canceled. Tick errors never kill the
// loop; they translate into a backoff and the next tick resumes.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Logger.Info("scheduler started", "debug", s.Config.Debug)
	for {
		if ctx.Err() != nil {
			s.Logger.Info("scheduler stopping")
			return nil
		}

		if err := s.tick(ctx); err != nil {
			s.backoff(ctx, err)
		}

		if s.Config.Debug {
			s.sleep(ctx, debugSleep)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) error {
	if err := s.Inbox.Drain(ctx); err != nil {
		return err
	}

	if time.Since(s.lastSweep) >= sweepGap {
		summaries, err := s.Scanner.Sweep(ctx)
		if err != nil {
			return err
		}
		s.lastSweep = time.Now()

		for _, sum := range summaries {
			if err := s.Engine.Discover(ctx, sum); err != nil {
				return err
			}
		}
	}

	return s.Engine.MetaSweep(ctx)
}

// backoff sleeps according to the error class: the exact requested wait
// plus one second on a rate limit, a flat minute on anything else.
func (s *Scheduler) backoff(ctx context.Context, err error) {
	var limit core.RateLimitError
	if errors.As(err, &limit) {
		s.Logger.Warn("platform rate limit", "wait", limit.Wait)
		s.sleep(ctx, limit.Wait+time.Second)
		return
	}

	s.Logger.Error("tick failed", "error", err)
	s.sleep(ctx, transientSleep)
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
