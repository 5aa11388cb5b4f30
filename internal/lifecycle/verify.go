package lifecycle

import (
	"context"
	"regexp"
	"strings"

	"transcribot/internal/config"
	"transcribot/internal/core"
	"transcribot/internal/validation"
)

const summonMarker = "summoned by a username mention"

var summonURLPattern = regexp.MustCompile(`https?://\S+`)

// findTranscript proves username authored a transcription for the mirror.
// It tries, in order: the reply chain of a summoning comment, the top
// level of the original post, and the user's ten most recent comments.
// A nil comment with a nil error means no transcript was found.
//
// The boolean reports whether the comment came from the original post's
// top level.
func (e *Engine) findTranscript(ctx context.Context, snap *config.Snapshot, mirror, original *core.Post, username string) (*core.Comment, bool, error) {
	found, err := e.summonedTranscript(ctx, snap, mirror, username)
	if err != nil {
		return nil, false, err
	}
	if found != nil {
		return found, false, nil
	}

	topLevel, err := e.Platform.TopLevelComments(ctx, original)
	if err != nil {
		return nil, false, err
	}
	for _, c := range topLevel {
		if c.Author == username && e.looksLikeTranscript(snap, c.Body) {
			return &c, true, nil
		}
	}

	recent, err := e.Platform.UserComments(ctx, username, 10)
	if err != nil {
		return nil, false, err
	}
	for _, c := range recent {
		if c.LinkID == original.Fullname && e.looksLikeTranscript(snap, c.Body) {
			return &c, false, nil
		}
	}

	return nil, false, nil
}

// summonedTranscript handles mirrors created by a username mention: the
// bot left a marker comment linking the summoning comment, and the
// transcript lives in that comment's replies rather than at the top
// level of a post.
func (e *Engine) summonedTranscript(ctx context.Context, snap *config.Snapshot, mirror *core.Post, username string) (*core.Comment, error) {
	comments, err := e.Platform.TopLevelComments(ctx, mirror)
	if err != nil {
		return nil, err
	}

	var summonURL string
	for _, c := range comments {
		if c.Author != e.Config.BotUsername() {
			continue
		}
		if !strings.Contains(c.Body, summonMarker) {
			continue
		}
		if m := summonURLPattern.FindString(c.Body); m != "" {
			summonURL = m
			break
		}
	}
	if summonURL == "" {
		return nil, nil
	}

	summoning, err := e.Platform.CommentByURL(ctx, summonURL)
	if err != nil {
		e.Logger.Warn("summoning comment unreachable", "url", summonURL, "error", err)
		return nil, nil
	}

	replies, err := e.Platform.Replies(ctx, summoning)
	if err != nil {
		return nil, err
	}
	for _, c := range replies {
		if c.Author == username && e.looksLikeTranscript(snap, c.Body) {
			return &c, nil
		}
	}
	return nil, nil
}

// looksLikeTranscript applies the ToR-link check unless the community has
// disabled it, in which case authorship alone is enough.
func (e *Engine) looksLikeTranscript(snap *config.Snapshot, body string) bool {
	if !snap.PerformHeaderCheck {
		return true
	}
	return strings.Contains(body, validation.ToRLink)
}
