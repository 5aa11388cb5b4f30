package config

// Config carries everything sourced from flags and the environment.
// Community-level settings live in the wiki-backed Snapshot instead.
type Config struct {
	LogLevel string `flag:"log-level"`
	Debug    bool   `flag:"debug"`

	NATSURL  string `flag:"nats-url"`
	NATSInit bool   `flag:"nats-init"`

	RegistryURL      string `flag:"registry-url"`
	RegistryAPIKey   string `flag:"registry-api-key"`
	RegistryLoginURL string `flag:"registry-login-url"`
	RegistryEmail    string `flag:"registry-email"`
	RegistryPassword string `flag:"registry-password"`

	RedditClientID     string `flag:"reddit-client-id"`
	RedditClientSecret string `flag:"reddit-client-secret"`
	RedditUsername     string `flag:"reddit-username"`
	RedditPassword     string `flag:"reddit-password"`

	// CentralSubreddit is the one community the bot moderates; it hosts
	// every mirror post.
	CentralSubreddit string `flag:"central-subreddit"`
	// OCRBotName is the companion account whose mail is acked and dropped.
	OCRBotName string `flag:"ocr-bot-name"`

	ChatWebhookURL string `flag:"chat-webhook-url"`
	ChatChannel    string `flag:"chat-channel"`

	// AllowModOverride gates the !override command.
	AllowModOverride bool `flag:"allow-mod-override"`

	MetricsAddr string `flag:"metrics-addr"`
}

// BotUsername is the central community's author identity. It is never
// processed as a volunteer.
func (c *Config) BotUsername() string {
	return c.RedditUsername
}
