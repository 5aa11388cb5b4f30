package config

import (
	"context"
	"log/slog"
	"sync/atomic"

	"transcribot/internal/core"
)

// WikiPage is the wiki page in the central community holding the YAML
// settings document.
const WikiPage = "transcribot/config"

// Snapshots is the read side of Store.
type Snapshots interface {
	Current() *Snapshot
}

// Store owns the live Snapshot. Init loads it once; Reload swaps in a
// fresh one atomically when a moderator mails "reload".
type Store struct {
	Logger   *slog.Logger
	Config   *Config
	Platform core.Platform

	snapshot atomic.Pointer[Snapshot]
}

func (s *Store) Init(ctx context.Context) error {
	s.Logger = s.Logger.With("component", "config.Store")
	return s.Reload(ctx)
}

// Reload fetches the wiki page and the moderator list and publishes a new
// snapshot. On failure the previous snapshot stays live.
func (s *Store) Reload(ctx context.Context) error {
	raw, err := s.Platform.WikiPage(ctx, s.Config.CentralSubreddit, WikiPage)
	if err != nil {
		return err
	}

	snap, err := ParseSnapshot(raw)
	if err != nil {
		return err
	}
	if len(snap.Subreddits) == 0 {
		s.Logger.Error("wiki config lists no source communities; discovery will be a no-op")
	}

	mods, err := s.Platform.Moderators(ctx, s.Config.CentralSubreddit)
	if err != nil {
		return err
	}
	snap.Moderators = mods

	s.snapshot.Store(snap)
	s.Logger.Info("config snapshot loaded",
		"subreddits", len(snap.Subreddits), "moderators", len(mods))
	return nil
}

// Current returns the live snapshot.
func (s *Store) Current() *Snapshot {
	return s.snapshot.Load()
}
