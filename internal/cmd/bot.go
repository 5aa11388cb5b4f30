package cmd

import (
	"context"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"transcribot/internal/chat"
	"transcribot/internal/cmd/flags"
	"transcribot/internal/config"
	"transcribot/internal/flair"
	"transcribot/internal/inbox"
	"transcribot/internal/ledger"
	"transcribot/internal/lifecycle"
	"transcribot/internal/metrics"
	"transcribot/internal/nats"
	"transcribot/internal/reddit"
	"transcribot/internal/registry"
	"transcribot/internal/scanner"
	"transcribot/internal/scheduler"
	"transcribot/internal/youtube"
)

var botCmd = &cli.Command{
	Name:  "bot",
	Usage: "Run the moderation bot loop",
	Flags: []cli.Flag{
		flags.Debug,
		flags.NATSUrl,
		flags.InitNATS,
		flags.RegistryURL,
		flags.RegistryAPIKey,
		flags.RegistryLoginURL,
		flags.RegistryEmail,
		flags.RegistryPassword,
		flags.RedditClientID,
		flags.RedditClientSecret,
		flags.RedditUsername,
		flags.RedditPassword,
		flags.CentralSubreddit,
		flags.OCRBotName,
		flags.ChatWebhookURL,
		flags.ChatChannel,
		flags.AllowModOverride,
		flags.MetricsAddr,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide(&nats.NATS{}),
			pal.Provide(&ledger.Ledger{}),
			pal.Provide(&reddit.Client{}),
			pal.Provide(&reddit.Public{}),
			pal.Provide(&registry.Client{}),
			pal.Provide(&chat.Webhook{}),
			pal.Provide(&flair.Tiers{}),
			pal.Provide(&youtube.Transcripts{}),
			pal.Provide(&config.Store{}),
			pal.Provide(&scanner.Scanner{}),
			pal.Provide(&lifecycle.Engine{}),
			pal.Provide(&inbox.Dispatcher{}),
			pal.Provide(&scheduler.Scheduler{}),
			pal.Provide(&metrics.Server{}),
		)
	},
}
