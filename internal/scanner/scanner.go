// Package scanner discovers candidate posts across the source communities.
// It fans out listing fetches, filters by domain and vote threshold, and
// asks the registry which candidates are genuinely new. The scanner only
// reads; every write belongs to the lifecycle engine.
package scanner

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	"github.com/zhulik/pips"
	"github.com/zhulik/pips/apply"
	"golang.org/x/sync/errgroup"

	"transcribot/internal/config"
	"transcribot/internal/core"
)

// Listings is the one slice of the public client the scanner reads from.
type Listings interface {
	New(ctx context.Context, subreddit string) ([]core.PostSummary, error)
}

var (
	postsSeen = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribot_scanner_posts_seen_total",
		Help: "Candidate posts fetched from the public listings",
	}, []string{"subreddit"})

	postsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcribot_scanner_posts_emitted_total",
		Help: "Candidates that passed filtering and bulkcheck",
	})
)

type Scanner struct {
	Logger   *slog.Logger
	Store    config.Snapshots
	Public   Listings
	Registry core.Registry
}

func (s *Scanner) Init(context.Context) error {
	s.Logger = s.Logger.With("component", "scanner.Scanner")
	return nil
}

// Sweep pulls the newest items from every source community and returns
// the summaries worth mirroring. Per-community failures degrade to empty
// results; only registry failures abort the sweep.
func (s *Scanner) Sweep(ctx context.Context) ([]core.PostSummary, error) {
	snap := s.Store.Current()
	if len(snap.Subreddits) == 0 {
		return nil, nil
	}

	fetched, err := s.fanOut(ctx, snap.Subreddits)
	if err != nil {
		return nil, err
	}

	candidates, err := s.filter(ctx, snap, fetched)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	fresh, err := s.dropKnown(ctx, candidates)
	if err != nil {
		return nil, err
	}

	postsEmitted.Add(float64(len(fresh)))
	return fresh, nil
}

// fanOut fetches every community concurrently under a bounded worker
// pool. Workers are stateless and share only the HTTP client.
func (s *Scanner) fanOut(ctx context.Context, subreddits []string) ([]core.PostSummary, error) {
	results := make([][]core.PostSummary, len(subreddits))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU() * 5)

	for i, sub := range subreddits {
		g.Go(func() error {
			summaries, err := s.Public.New(ctx, sub)
			if err != nil {
				// Connectivity trouble on one community must not sink
				// the whole sweep.
				s.Logger.Warn("listing fetch failed", "subreddit", sub, "error", err)
				return nil
			}
			postsSeen.WithLabelValues(sub).Add(float64(len(summaries)))
			results[i] = summaries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return lo.Flatten(results), nil
}

// filter applies the domain allow-lists, the per-community vote
// thresholds, and the archived/locked gates.
func (s *Scanner) filter(ctx context.Context, snap *config.Snapshot, summaries []core.PostSummary) ([]core.PostSummary, error) {
	in := make(chan pips.D[core.PostSummary])
	go func() {
		defer close(in)
		for _, sum := range summaries {
			select {
			case in <- pips.NewD(sum):
			case <-ctx.Done():
				return
			}
		}
	}()

	out := pips.New[core.PostSummary, core.PostSummary]().
		Then(apply.Filter(func(_ context.Context, sum core.PostSummary) (bool, error) {
			return !sum.Archived && !sum.Locked, nil
		})).
		Then(apply.Filter(func(_ context.Context, sum core.PostSummary) (bool, error) {
			return snap.DomainAllowed(sum.Subreddit, sum.Domain), nil
		})).
		Then(apply.Filter(func(_ context.Context, sum core.PostSummary) (bool, error) {
			return sum.Ups >= snap.UpvoteThreshold(sum.Subreddit), nil
		})).
		Run(ctx, in)

	var kept []core.PostSummary
	for d := range out {
		sum, err := d.Unpack()
		if err != nil {
			return nil, err
		}
		kept = append(kept, sum)
	}
	return kept, nil
}

// dropKnown is the outer dedup: only URLs the registry has never seen go
// on to the lifecycle engine. The ledger is the inner dedup.
func (s *Scanner) dropKnown(ctx context.Context, candidates []core.PostSummary) ([]core.PostSummary, error) {
	urls := lo.Map(candidates, func(sum core.PostSummary, _ int) string {
		return sum.FullURL()
	})

	unknown, err := s.Registry.BulkCheck(ctx, urls)
	if err != nil {
		return nil, err
	}

	unknownSet := lo.Associate(unknown, func(u string) (string, bool) {
		return u, true
	})

	return lo.Filter(candidates, func(sum core.PostSummary, _ int) bool {
		return unknownSet[sum.FullURL()]
	}), nil
}
