// Package inbox classifies unread mail and routes each item to a
// lifecycle handler. Items are processed oldest-first and marked read
// exactly once, before their handler runs, so a crashing handler can
// never replay mail.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"

	"transcribot/internal/config"
	"transcribot/internal/core"
)

var (
	interventionPattern = regexp.MustCompile(`fuck|unclaim|undo|(good|bad) bot`)
	claimPattern        = regexp.MustCompile(`claim|dibs|clai|caim|clam|calim|dib`)
	donePattern         = regexp.MustCompile(`done|deno|doen|dome|doone`)

	routed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribot_inbox_routed_total",
		Help: "Inbox items routed, by route",
	}, []string{"route"})
)

// Engine is the slice of the lifecycle engine the dispatcher drives.
type Engine interface {
	HandleClaim(ctx context.Context, comment *core.Comment) error
	HandleDone(ctx context.Context, comment *core.Comment, override bool) error
	HandleUnclaim(ctx context.Context, comment *core.Comment) error
	HandleCoC(ctx context.Context, comment *core.Comment) error
	HandleOverride(ctx context.Context, comment *core.Comment) error
	HandleSummon(ctx context.Context, comment *core.Comment) error
}

// Reloader re-runs config initialization on a moderator's request.
type Reloader interface {
	Reload(ctx context.Context) error
}

type Dispatcher struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    config.Snapshots
	Reloader Reloader
	Platform core.Platform
	Notifier core.Notifier
	Engine   Engine
}

func (d *Dispatcher) Init(context.Context) error {
	d.Logger = d.Logger.With("component", "inbox.Dispatcher")
	return nil
}

// Drain fetches all unread mail and routes it oldest-first. The first
// handler error aborts the drain; everything already routed stays read.
func (d *Dispatcher) Drain(ctx context.Context) error {
	mail, err := d.Platform.UnreadMail(ctx)
	if err != nil {
		return err
	}

	for _, m := range lo.Reverse(mail) {
		if err := d.dispatch(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, m core.Mail) error {
	if err := d.Platform.MarkRead(ctx, m.Fullname); err != nil {
		return err
	}

	snap := d.Store.Current()
	subject := strings.ToLower(m.Subject)

	switch {
	case m.Author == "":
		routed.WithLabelValues("no_author").Inc()
		d.Notifier.Send(ctx, fmt.Sprintf("Received mail with no author, subject %q:\n\n%s", m.Subject, m.Body))
		return nil

	case m.Author == d.Config.OCRBotName:
		routed.WithLabelValues("ocr").Inc()
		return nil

	case subject == "username mention":
		routed.WithLabelValues("mention").Inc()
		dm := config.Expand(snap.Response(config.RespMentionDM), map[string]string{
			"sub": d.Config.CentralSubreddit,
		})
		if err := d.Platform.SendMessage(ctx, m.Author, "Thanks for the summon!", dm); err != nil {
			return err
		}
		comment, err := d.Platform.GetComment(ctx, m.Fullname)
		if err != nil {
			if errors.Is(err, core.ErrDeletedComment) {
				d.Logger.Debug("mention comment gone", "id", m.Fullname)
				return nil
			}
			return err
		}
		if comment == nil {
			return nil
		}
		return d.Engine.HandleSummon(ctx, comment)

	case subject == "comment reply" || subject == "post reply":
		return d.routeReply(ctx, snap, m)

	case strings.Contains(subject, "reload"):
		routed.WithLabelValues("reload").Inc()
		if !snap.IsModerator(m.Author) {
			return d.reply(ctx, m, snap.UselessGif())
		}
		if err := d.Reloader.Reload(ctx); err != nil {
			return err
		}
		return d.reply(ctx, m, "Configuration reloaded.")

	case strings.Contains(subject, "update"):
		routed.WithLabelValues("update").Inc()
		if !snap.IsModerator(m.Author) {
			return d.reply(ctx, m, snap.UselessGif())
		}
		// Upgrades are handled by the deployment, not the process.
		d.Logger.Info("update requested", "username", m.Author)
		return nil

	case subject == "ping":
		routed.WithLabelValues("ping").Inc()
		return d.reply(ctx, m, snap.Response(config.RespPong))

	default:
		routed.WithLabelValues("forwarded").Inc()
		d.Notifier.Send(ctx, fmt.Sprintf("Mail from u/%s, subject %q:\n\n%s", m.Author, m.Subject, m.Body))
		return nil
	}
}

// routeReply applies the body keyword rules to a comment or post reply.
// First match wins.
func (d *Dispatcher) routeReply(ctx context.Context, snap *config.Snapshot, m core.Mail) error {
	comment, err := d.Platform.GetComment(ctx, m.Fullname)
	if err != nil {
		return err
	}

	body := strings.ToLower(comment.Body)
	switch {
	case interventionPattern.MatchString(body):
		routed.WithLabelValues("intervention").Inc()
		d.Notifier.Send(ctx, "Moderator intervention requested: "+core.PermalinkURL(comment.Permalink))
		if strings.Contains(body, "unclaim") {
			return d.Engine.HandleUnclaim(ctx, comment)
		}
		return nil

	case strings.Contains(body, "i accept"):
		routed.WithLabelValues("coc").Inc()
		return d.Engine.HandleCoC(ctx, comment)

	case claimPattern.MatchString(body):
		routed.WithLabelValues("claim").Inc()
		return d.Engine.HandleClaim(ctx, comment)

	case donePattern.MatchString(body):
		routed.WithLabelValues("done").Inc()
		return d.Engine.HandleDone(ctx, comment, false)

	case strings.Contains(body, "thank"):
		routed.WithLabelValues("thanks").Inc()
		return d.replyComment(ctx, comment.Fullname, snap.ThumbsUpGif())

	case strings.Contains(body, "!override"):
		routed.WithLabelValues("override").Inc()
		return d.Engine.HandleOverride(ctx, comment)

	default:
		routed.WithLabelValues("forwarded").Inc()
		d.Notifier.Send(ctx, fmt.Sprintf("Unrecognized reply from u/%s: %s", comment.Author, core.PermalinkURL(comment.Permalink)))
		return nil
	}
}

func (d *Dispatcher) reply(ctx context.Context, m core.Mail, body string) error {
	return d.replyComment(ctx, m.Fullname, body)
}

func (d *Dispatcher) replyComment(ctx context.Context, fullname, body string) error {
	_, err := d.Platform.Reply(ctx, fullname, body)
	if errors.Is(err, core.ErrDeletedComment) {
		d.Logger.Info("reply target deleted, dropping", "parent", fullname)
		return nil
	}
	return err
}
