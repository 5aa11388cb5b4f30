package flags

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	libnats "github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"
)

// LogLevels is the single mapping between flag values and slog levels;
// the validator and the logger setup both read it.
var LogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

var LogLevel = &cli.StringFlag{
	Name:    "log-level",
	Aliases: []string{"l"},
	Usage:   "The level of the logs",
	Value:   "info",
	Validator: func(value string) error {
		if _, ok := LogLevels[value]; !ok {
			return fmt.Errorf("invalid log level: %s, allowed values are: %s",
				value, slices.Sorted(maps.Keys(LogLevels)))
		}
		return nil
	},
	Sources: cli.EnvVars("LOG_LEVEL"),
}

var Debug = &cli.BoolFlag{
	Name:    "debug",
	Usage:   "Slow the scheduler down for interactive debugging",
	Value:   false,
	Sources: cli.EnvVars("DEBUG"),
}

var NATSUrl = &cli.StringFlag{
	Name:    "nats-url",
	Aliases: []string{"n"},
	Usage:   "The URL of the NATS server",
	Value:   libnats.DefaultURL,
	Sources: cli.EnvVars("NATS_URL"),
}

var InitNATS = &cli.BoolFlag{
	Name:        "nats-init",
	Aliases:     []string{"i"},
	Usage:       "Initialize the NATS server: create the KV buckets",
	DefaultText: "false",
	Value:       false,
	Sources:     cli.EnvVars("NATS_INIT"),
}

var RegistryURL = &cli.StringFlag{
	Name:     "registry-url",
	Usage:    "Base URL of the submission registry",
	Required: true,
	Sources:  cli.EnvVars("REGISTRY_URL"),
}

var RegistryAPIKey = &cli.StringFlag{
	Name:    "registry-api-key",
	Usage:   "API key sent on every registry request",
	Sources: cli.EnvVars("REGISTRY_API_KEY"),
}

var RegistryLoginURL = &cli.StringFlag{
	Name:    "registry-login-url",
	Usage:   "Login endpoint for registry session authentication",
	Sources: cli.EnvVars("REGISTRY_LOGIN_URL"),
}

var RegistryEmail = &cli.StringFlag{
	Name:    "registry-email",
	Usage:   "Email for the registry session login",
	Sources: cli.EnvVars("REGISTRY_EMAIL"),
}

var RegistryPassword = &cli.StringFlag{
	Name:    "registry-password",
	Usage:   "Password for the registry session login",
	Sources: cli.EnvVars("REGISTRY_PASSWORD"),
}

var RedditClientID = &cli.StringFlag{
	Name:    "reddit-client-id",
	Usage:   "OAuth client id of the bot application",
	Sources: cli.EnvVars("REDDIT_CLIENT_ID"),
}

var RedditClientSecret = &cli.StringFlag{
	Name:    "reddit-client-secret",
	Usage:   "OAuth client secret of the bot application",
	Sources: cli.EnvVars("REDDIT_CLIENT_SECRET"),
}

var RedditUsername = &cli.StringFlag{
	Name:    "reddit-username",
	Usage:   "Account the bot posts and moderates as",
	Sources: cli.EnvVars("REDDIT_USERNAME"),
}

var RedditPassword = &cli.StringFlag{
	Name:    "reddit-password",
	Usage:   "Password of the bot account",
	Sources: cli.EnvVars("REDDIT_PASSWORD"),
}

var CentralSubreddit = &cli.StringFlag{
	Name:    "central-subreddit",
	Usage:   "The community hosting the mirror posts",
	Value:   "TranscribersOfReddit",
	Sources: cli.EnvVars("CENTRAL_SUBREDDIT"),
}

var OCRBotName = &cli.StringFlag{
	Name:    "ocr-bot-name",
	Usage:   "Companion OCR account whose mail is acknowledged and dropped",
	Sources: cli.EnvVars("OCR_BOT_NAME"),
}

var ChatWebhookURL = &cli.StringFlag{
	Name:    "chat-webhook-url",
	Usage:   "Webhook endpoint for operator notifications",
	Sources: cli.EnvVars("CHAT_WEBHOOK_URL"),
}

var ChatChannel = &cli.StringFlag{
	Name:    "chat-channel",
	Usage:   "Channel name sent with every webhook message",
	Sources: cli.EnvVars("CHAT_CHANNEL"),
}

var AllowModOverride = &cli.BoolFlag{
	Name:    "allow-mod-override",
	Usage:   "Let moderators force a done with !override",
	Value:   true,
	Sources: cli.EnvVars("ALLOW_MOD_OVERRIDE"),
}

var MetricsAddr = &cli.StringFlag{
	Name:    "metrics-addr",
	Usage:   "Listen address of the metrics and health server",
	Value:   ":8080",
	Sources: cli.EnvVars("METRICS_ADDR"),
}
