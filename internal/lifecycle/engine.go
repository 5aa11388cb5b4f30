// Package lifecycle owns every mirror post from creation to completion.
// It consumes discovered summaries and inbox-driven comments, and emits
// platform writes, registry transitions, and chat notifications. All
// writes for one mirror happen in a single logical thread per tick.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"transcribot/internal/config"
	"transcribot/internal/core"
	inats "transcribot/internal/nats"
	"transcribot/internal/youtube"
)

const metaWatermarkKey = "meta_watermark"

var (
	mirrorsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcribot_lifecycle_mirrors_submitted_total",
		Help: "Mirror posts created in the central community",
	})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribot_lifecycle_transitions_total",
		Help: "Lifecycle transitions applied, by event",
	}, []string{"event"})
)

// stateKV is the slice of the KV bucket the meta sweep keeps its
// watermark in.
type stateKV interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

type Engine struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    config.Snapshots
	NATS     *inats.NATS
	Ledger   core.Ledger
	Registry core.Registry
	Platform core.Platform
	Notifier core.Notifier
	Captions core.CaptionLookup
	Tiers    core.FlairTiers

	state stateKV
}

func (e *Engine) Init(context.Context) error {
	e.Logger = e.Logger.With("component", "lifecycle.Engine")
	if e.state == nil {
		e.state = e.NATS.State
	}
	return nil
}

// Discover mirrors one scanner candidate. The ledger gates the whole
// handler: only a fresh id proceeds, so at most one mirror is ever
// submitted for a given source post.
func (e *Engine) Discover(ctx context.Context, sum core.PostSummary) error {
	state, err := e.Ledger.TryBegin(ctx, sum.Fullname())
	if err != nil {
		return err
	}
	if state != core.BeginFresh {
		e.Logger.Debug("skipping known post", "id", sum.Fullname(), "state", state)
		return nil
	}

	snap := e.Store.Current()
	contentType := e.contentTypeOf(snap, sum)

	if contentType == core.ContentVideo && youtube.IsVideoURL(sum.URL) {
		captioned, err := e.Captions.HasCaptions(ctx, sum.URL)
		if err != nil {
			e.Logger.Warn("caption lookup failed, mirroring anyway", "url", sum.URL, "error", err)
		} else if captioned {
			if err := e.reply(ctx, sum.Fullname(), snap.Response(config.RespAlreadyTranscribe)); err != nil {
				return err
			}
			transitions.WithLabelValues("captioned_skip").Inc()
			return e.Ledger.MarkFinished(ctx, sum.Fullname())
		}
	}

	title := fmt.Sprintf("%s | %s | %q", sum.Subreddit, contentLabel(contentType), sum.Title)
	mirror, err := e.Platform.Submit(ctx, e.Config.CentralSubreddit, title, sum.FullURL())
	if err != nil {
		return err
	}
	mirrorsSubmitted.Inc()

	rules := config.Expand(snap.Response(config.RespRulesComment), map[string]string{
		"type": string(contentType),
	})
	if snap.PostHeader != "" {
		rules = snap.PostHeader + "\n\n" + rules
	}
	if err := e.reply(ctx, mirror.Fullname, rules); err != nil {
		return err
	}

	if err := e.setPostFlair(ctx, snap, mirror.Fullname, core.FlairUnclaimed); err != nil {
		return err
	}

	_, status, err := e.Registry.CreateSubmission(ctx, core.NewSubmission{
		OriginalID: sum.Fullname(),
		TorURL:     core.PermalinkURL(mirror.Permalink),
		URL:        sum.FullURL(),
		ContentURL: sum.URL,
		Title:      sum.Title,
		NSFW:       sum.NSFW,
	})
	if err != nil {
		return err
	}
	if status != core.StatusOK {
		e.Logger.Error("registry rejected submission", "id", sum.Fullname(), "status", status.String())
	}

	transitions.WithLabelValues("mirrored").Inc()
	return e.Ledger.MarkFinished(ctx, sum.Fullname())
}

// HandleSummon mirrors the post a username mention points at. Summoned
// mirrors skip the domain filter: a human explicitly asked for this one.
func (e *Engine) HandleSummon(ctx context.Context, comment *core.Comment) error {
	state, err := e.Ledger.TryBegin(ctx, comment.LinkID)
	if err != nil {
		return err
	}
	if state != core.BeginFresh {
		e.Logger.Debug("summoned post already known", "id", comment.LinkID)
		return nil
	}

	snap := e.Store.Current()

	post, err := e.Platform.GetPost(ctx, comment.LinkID)
	if err != nil || post == nil {
		// The mention may sit on content the bot cannot resolve.
		post = core.UnknownContentPost(comment.Subreddit, comment.Permalink)
	}

	title := fmt.Sprintf("%s | %s | %q", post.Subreddit, contentLabel(core.ContentOther), post.Title)
	mirror, err := e.Platform.Submit(ctx, e.Config.CentralSubreddit, title, core.PermalinkURL(post.Permalink))
	if err != nil {
		return err
	}
	mirrorsSubmitted.Inc()

	rules := config.Expand(snap.Response(config.RespRulesComment), map[string]string{
		"type": string(core.ContentOther),
	})
	if snap.PostHeader != "" {
		rules = snap.PostHeader + "\n\n" + rules
	}
	if err := e.reply(ctx, mirror.Fullname, rules); err != nil {
		return err
	}

	marker := config.Expand(snap.Response(config.RespSummonedBy), map[string]string{
		"url": core.PermalinkURL(comment.Permalink),
	})
	if err := e.reply(ctx, mirror.Fullname, marker); err != nil {
		return err
	}

	if err := e.setPostFlair(ctx, snap, mirror.Fullname, core.FlairSummonedUnclaimed); err != nil {
		return err
	}

	_, status, err := e.Registry.CreateSubmission(ctx, core.NewSubmission{
		OriginalID: comment.LinkID,
		TorURL:     core.PermalinkURL(mirror.Permalink),
		URL:        core.PermalinkURL(post.Permalink),
		ContentURL: post.URL,
		Title:      post.Title,
	})
	if err != nil {
		return err
	}
	if status != core.StatusOK {
		e.Logger.Error("registry rejected summoned submission", "id", comment.LinkID, "status", status.String())
	}

	transitions.WithLabelValues("summoned").Inc()
	return e.Ledger.MarkFinished(ctx, comment.LinkID)
}

// HandleClaim processes a "claim" comment on a mirror post.
func (e *Engine) HandleClaim(ctx context.Context, comment *core.Comment) error {
	snap := e.Store.Current()
	mirror, sub, err := e.resolveMirror(ctx, comment)
	if err != nil || mirror == nil {
		return err
	}

	vol, status, err := e.Registry.GetVolunteer(ctx, comment.Author)
	if err != nil {
		return err
	}
	if status == core.StatusNotFound || !vol.AcceptedCoC {
		return e.reply(ctx, comment.Fullname, snap.Response(config.RespCoCPrompt))
	}

	if sub.CompletedBy != "" {
		if err := e.reply(ctx, comment.Fullname, snap.Response(config.RespAlreadyCompleted)); err != nil {
			return err
		}
		return e.setPostFlair(ctx, snap, mirror.Fullname, core.FlairCompleted)
	}

	status, err = e.Registry.Claim(ctx, sub.ID, vol.ID)
	if err != nil {
		return err
	}
	switch status {
	case core.StatusOK:
		transitions.WithLabelValues("claimed").Inc()
		if err := e.reply(ctx, comment.Fullname, snap.Response(config.RespClaimSuccess)); err != nil {
			return err
		}
		return e.setPostFlair(ctx, snap, mirror.Fullname, core.FlairInProgress)
	case core.StatusOtherUser, core.StatusMissingPrerequisite:
		if err := e.reply(ctx, comment.Fullname, snap.Response(config.RespAlreadyClaimed)); err != nil {
			return err
		}
		return e.setPostFlair(ctx, snap, mirror.Fullname, core.FlairInProgress)
	case core.StatusAlreadyCompleted:
		if err := e.reply(ctx, comment.Fullname, snap.Response(config.RespAlreadyCompleted)); err != nil {
			return err
		}
		return e.setPostFlair(ctx, snap, mirror.Fullname, core.FlairCompleted)
	default:
		e.Logger.Error("claim failed", "submission", sub.ID, "status", status.String())
		return nil
	}
}

// HandleDone processes a "done" comment. Without override it first proves
// the commenter authored a transcription rooted in the original post.
func (e *Engine) HandleDone(ctx context.Context, comment *core.Comment, override bool) error {
	snap := e.Store.Current()
	mirror, sub, err := e.resolveMirror(ctx, comment)
	if err != nil || mirror == nil {
		return err
	}

	if !override {
		original, err := e.Platform.PostByURL(ctx, mirror.URL)
		if err != nil {
			return err
		}
		transcript, _, err := e.findTranscript(ctx, snap, mirror, original, comment.Author)
		if err != nil {
			return err
		}
		if transcript == nil {
			return e.reply(ctx, comment.Fullname, snap.Response(config.RespCannotFind))
		}
	}

	status, err := e.Registry.Done(ctx, sub.ID, comment.Author, override)
	if err != nil {
		return err
	}
	switch status {
	case core.StatusOK:
		transitions.WithLabelValues("completed").Inc()
		if err := e.reply(ctx, comment.Fullname, snap.Response(config.RespDoneSuccess)); err != nil {
			return err
		}
		if err := e.setPostFlair(ctx, snap, mirror.Fullname, core.FlairCompleted); err != nil {
			return err
		}
		return e.updateUserFlair(ctx, comment.Author)
	case core.StatusAlreadyCompleted:
		if err := e.reply(ctx, comment.Fullname, snap.Response(config.RespAlreadyCompleted)); err != nil {
			return err
		}
		return e.setPostFlair(ctx, snap, mirror.Fullname, core.FlairCompleted)
	case core.StatusMissingPrerequisite:
		if sub.ClaimedBy == "" {
			if err := e.reply(ctx, comment.Fullname, snap.Response(config.RespNotClaimed)); err != nil {
				return err
			}
			return e.setPostFlair(ctx, snap, mirror.Fullname, core.FlairUnclaimed)
		}
		if err := e.reply(ctx, comment.Fullname, snap.Response(config.RespNotClaimedByYou)); err != nil {
			return err
		}
		return e.setPostFlair(ctx, snap, mirror.Fullname, core.FlairInProgress)
	default:
		e.Logger.Error("done failed", "submission", sub.ID, "status", status.String())
		return nil
	}
}

// HandleUnclaim releases a claim. If the original post meanwhile got
// removed or reported, the mirror is taken down instead of re-opened.
func (e *Engine) HandleUnclaim(ctx context.Context, comment *core.Comment) error {
	snap := e.Store.Current()
	mirror, sub, err := e.resolveMirror(ctx, comment)
	if err != nil || mirror == nil {
		return err
	}

	status, err := e.Registry.Unclaim(ctx, sub.ID, comment.Author)
	if err != nil {
		return err
	}
	if status != core.StatusOK {
		e.Logger.Info("unclaim rejected", "submission", sub.ID, "status", status.String())
		return nil
	}
	transitions.WithLabelValues("unclaimed").Inc()

	original, err := e.Platform.PostByURL(ctx, mirror.URL)
	if err != nil {
		return err
	}
	if original.Removed || original.NumReports > 0 {
		if err := e.Platform.Remove(ctx, mirror.Fullname); err != nil {
			return err
		}
		e.Notifier.Send(ctx, fmt.Sprintf(
			"Removed mirror %s after unclaim: the original post was removed or reported.",
			core.PermalinkURL(mirror.Permalink)))
		return nil
	}
	return e.setPostFlair(ctx, snap, mirror.Fullname, core.FlairUnclaimed)
}

// HandleCoC records a code-of-conduct acceptance, creating the volunteer
// on first contact, then falls through to the claim the user wanted.
func (e *Engine) HandleCoC(ctx context.Context, comment *core.Comment) error {
	vol, status, err := e.Registry.GetVolunteer(ctx, comment.Author)
	if err != nil {
		return err
	}
	if status == core.StatusNotFound {
		vol, status, err = e.Registry.CreateVolunteer(ctx, comment.Author)
		if err != nil {
			return err
		}
		if status != core.StatusOK {
			e.Logger.Error("volunteer creation failed", "username", comment.Author, "status", status.String())
			return nil
		}
	}

	if !vol.AcceptedCoC {
		if _, err := e.Registry.SetCoC(ctx, vol.ID); err != nil {
			return err
		}
		e.Notifier.Send(ctx, fmt.Sprintf("u/%s just accepted the Code of Conduct!", comment.Author))
	}

	return e.HandleClaim(ctx, comment)
}

// HandleOverride lets a moderator force a done through the two-level
// parent chain: their comment replies to the bot's refusal, which in turn
// replies to the original done claim.
func (e *Engine) HandleOverride(ctx context.Context, comment *core.Comment) error {
	snap := e.Store.Current()
	if !e.Config.AllowModOverride || !snap.IsModerator(comment.Author) {
		e.Logger.Info("override denied", "username", comment.Author)
		return e.reply(ctx, comment.Fullname, snap.UselessGif())
	}

	refusal, err := e.Platform.GetComment(ctx, comment.ParentID)
	if err != nil {
		return err
	}
	claim, err := e.Platform.GetComment(ctx, refusal.ParentID)
	if err != nil {
		return err
	}
	transitions.WithLabelValues("overridden").Inc()
	return e.HandleDone(ctx, claim, true)
}

// MetaSweep labels non-bot posts in the central community as Meta. The
// watermark in the state bucket keeps restarts from re-visiting posts.
func (e *Engine) MetaSweep(ctx context.Context) error {
	snap := e.Store.Current()
	posts, err := e.Platform.NewPosts(ctx, e.Config.CentralSubreddit, 10)
	if err != nil {
		return err
	}

	watermark, err := e.loadWatermark(ctx)
	if err != nil {
		return err
	}

	newest := watermark
	for _, post := range posts {
		if post.CreatedUTC <= watermark {
			continue
		}
		if post.CreatedUTC > newest {
			newest = post.CreatedUTC
		}
		if post.Author == e.Config.BotUsername() || snap.IsModerator(post.Author) {
			continue
		}
		if post.FlairText == string(core.FlairMeta) {
			continue
		}
		if err := e.setPostFlair(ctx, snap, post.Fullname, core.FlairMeta); err != nil {
			return err
		}
		transitions.WithLabelValues("meta").Inc()
	}

	if newest > watermark {
		return e.saveWatermark(ctx, newest)
	}
	return nil
}

// resolveMirror walks from a comment up to its post and the registry
// record behind it. A nil post with a nil error means "not ours, ignore":
// either the post was not authored by the bot or the registry has no
// record for it.
func (e *Engine) resolveMirror(ctx context.Context, comment *core.Comment) (*core.Post, *core.Submission, error) {
	post, err := e.Platform.GetPost(ctx, comment.LinkID)
	if err != nil {
		return nil, nil, err
	}
	if post.Author != e.Config.BotUsername() {
		e.Logger.Debug("comment on foreign post, ignoring", "post", post.Fullname)
		return nil, nil, nil
	}

	sub, status, err := e.Registry.GetSubmissionByURL(ctx, post.URL)
	if err != nil {
		return nil, nil, err
	}
	if status != core.StatusOK {
		e.Logger.Error("no registry record for mirror", "post", post.Fullname, "status", status.String())
		return nil, nil, nil
	}
	return post, sub, nil
}

func (e *Engine) contentTypeOf(snap *config.Snapshot, sum core.PostSummary) core.ContentType {
	if sum.Gallery {
		return core.ContentGallery
	}
	return snap.TypeForDomain(sum.Domain)
}

// reply posts a comment, treating the platform's deleted-parent race as
// a drop rather than a failure.
func (e *Engine) reply(ctx context.Context, parentFullname, body string) error {
	_, err := e.Platform.Reply(ctx, parentFullname, body)
	if errors.Is(err, core.ErrDeletedComment) {
		e.Logger.Info("reply parent deleted, dropping", "parent", parentFullname)
		return nil
	}
	return err
}

// setPostFlair resolves the template id and applies it. A missing
// template makes the write a no-op, logged loudly.
func (e *Engine) setPostFlair(ctx context.Context, snap *config.Snapshot, fullname string, flair core.Flair) error {
	templateID, err := snap.FlairTemplate(flair)
	if err != nil {
		e.Logger.Error("no flair template configured", "flair", string(flair))
		return nil
	}
	return e.Platform.SelectFlair(ctx, e.Config.CentralSubreddit, fullname, templateID)
}

func (e *Engine) updateUserFlair(ctx context.Context, username string) error {
	vol, status, err := e.Registry.GetVolunteer(ctx, username)
	if err != nil {
		return err
	}
	if status != core.StatusOK {
		e.Logger.Error("volunteer lookup failed after done", "username", username, "status", status.String())
		return nil
	}
	text, css := e.Tiers.Tier(vol.Gamma)
	return e.Platform.SetUserFlair(ctx, e.Config.CentralSubreddit, username, text, css)
}

func (e *Engine) loadWatermark(ctx context.Context) (float64, error) {
	entry, err := e.state.Get(ctx, metaWatermarkKey)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	mark, err := strconv.ParseFloat(string(entry.Value()), 64)
	if err != nil {
		e.Logger.Error("corrupt meta watermark, resetting", "value", string(entry.Value()))
		return 0, nil
	}
	return mark, nil
}

func (e *Engine) saveWatermark(ctx context.Context, mark float64) error {
	_, err := e.state.Put(ctx, metaWatermarkKey, []byte(strconv.FormatFloat(mark, 'f', -1, 64)))
	return err
}

func contentLabel(t core.ContentType) string {
	switch t {
	case core.ContentImage:
		return "Image"
	case core.ContentAudio:
		return "Audio"
	case core.ContentVideo:
		return "Video"
	case core.ContentGallery:
		return "Gallery"
	default:
		return "Other"
	}
}
