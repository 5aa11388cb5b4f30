package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"

	"resty.dev/v3"

	"transcribot/internal/core"
)

const publicBase = "https://www.reddit.com"

// newListingCap bounds how many fresh items one sweep considers per
// community.
const newListingCap = 10

// The public endpoint throttles well-known user agents; each request
// carries a randomized polite one instead.
var (
	uaAdjectives = []string{"curious", "polite", "friendly", "diligent", "helpful", "busy"}
	uaNouns      = []string{"reader", "librarian", "archivist", "transcriber", "scribe", "browser"}
)

func politeUserAgent() string {
	return fmt.Sprintf("%s-%s-%04d reading the new queue",
		uaAdjectives[rand.IntN(len(uaAdjectives))],
		uaNouns[rand.IntN(len(uaNouns))],
		rand.IntN(10000))
}

// Public fetches community listings through the unauthenticated JSON
// endpoint. It never shares credentials or state with the API client.
type Public struct {
	Logger *slog.Logger

	http *resty.Client
}

func (p *Public) Init(context.Context) error {
	p.Logger = p.Logger.With("component", "reddit.Public")
	p.http = resty.New().SetBaseURL(publicBase)
	return nil
}

func (p *Public) Shutdown(context.Context) error {
	return p.http.Close()
}

// New returns the newest posts for one community as summaries, self posts
// dropped. Throttling and error envelopes yield an empty slice; a single
// sour community never fails the sweep.
func (p *Public) New(ctx context.Context, subreddit string) ([]core.PostSummary, error) {
	resp, err := p.http.R().WithContext(ctx).
		SetHeader("User-Agent", politeUserAgent()).
		Get("/r/" + subreddit + "/new/.json")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		p.Logger.Warn("public listing throttled", "subreddit", subreddit)
		return nil, nil
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		p.Logger.Warn("public listing error", "subreddit", subreddit, "status", resp.Status())
		return nil, nil
	}

	var l listing
	if err := json.Unmarshal(resp.Bytes(), &l); err != nil {
		// Error envelopes are not listings; treat them as an empty sweep.
		p.Logger.Warn("public listing unparseable", "subreddit", subreddit)
		return nil, nil
	}

	var summaries []core.PostSummary
	for _, child := range l.Data.Children {
		if len(summaries) == newListingCap {
			break
		}
		if child.Kind != "t3" {
			continue
		}

		var d postData
		if err := json.Unmarshal(child.Data, &d); err != nil {
			continue
		}
		if d.IsSelf {
			continue
		}
		summaries = append(summaries, d.toSummary())
	}
	return summaries, nil
}
