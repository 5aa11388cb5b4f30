package config

import (
	"math/rand/v2"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"transcribot/internal/core"
)

// Snapshot is one immutable view of the wiki-backed community settings.
// A new snapshot replaces the old one atomically on reload; nothing ever
// mutates a snapshot in place.
type Snapshot struct {
	// Subreddits are the approved source communities.
	Subreddits []string `yaml:"subreddits"`

	ImageDomains []string `yaml:"image_domains"`
	AudioDomains []string `yaml:"audio_domains"`
	VideoDomains []string `yaml:"video_domains"`
	// DomainFilterBypass lists communities whose posts skip the domain
	// allow-lists entirely.
	DomainFilterBypass []string `yaml:"domain_filter_bypass"`

	// UpvoteFilter holds per-community minimum upvote thresholds.
	UpvoteFilter map[string]int `yaml:"upvote_filter"`

	// PostHeader is prepended to every rules comment on a mirror post.
	PostHeader string `yaml:"post_header"`

	// FlairTemplates maps flair text to the platform's opaque template id.
	FlairTemplates map[string]string `yaml:"flair_templates"`

	UselessGifs  []string `yaml:"useless_gifs"`
	ThumbsUpGifs []string `yaml:"thumbs_up_gifs"`

	// Responses overrides the built-in response templates per key.
	Responses map[string]string `yaml:"responses"`

	// PerformHeaderCheck gates the ToR-link check during verification.
	PerformHeaderCheck bool `yaml:"perform_header_check"`

	// Moderators of the central community, fetched from the platform
	// alongside the wiki page.
	Moderators []string `yaml:"-"`
}

// ParseSnapshot decodes the wiki page body. An empty page yields an empty
// snapshot; affected operations degrade to no-ops rather than failing.
func ParseSnapshot(raw string) (*Snapshot, error) {
	snap := &Snapshot{PerformHeaderCheck: true}
	if strings.TrimSpace(raw) == "" {
		return snap, nil
	}
	if err := yaml.Unmarshal([]byte(raw), snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// TypeForDomain routes a post's domain to a content type, honoring the
// three allow-lists. Unlisted domains map to ContentOther.
func (s *Snapshot) TypeForDomain(domain string) core.ContentType {
	switch {
	case lo.Contains(s.ImageDomains, domain):
		return core.ContentImage
	case lo.Contains(s.AudioDomains, domain):
		return core.ContentAudio
	case lo.Contains(s.VideoDomains, domain):
		return core.ContentVideo
	default:
		return core.ContentOther
	}
}

// DomainAllowed reports whether a post from subreddit with this domain
// passes the filter: the domain is on an allow-list or the community is
// on the bypass list.
func (s *Snapshot) DomainAllowed(subreddit, domain string) bool {
	if lo.Contains(s.DomainFilterBypass, subreddit) {
		return true
	}
	return s.TypeForDomain(domain) != core.ContentOther
}

// UpvoteThreshold returns the community's minimum vote count, zero when
// the community has none configured.
func (s *Snapshot) UpvoteThreshold(subreddit string) int {
	return s.UpvoteFilter[subreddit]
}

// FlairTemplate resolves the platform template id for a flair. Missing
// ids make the flair write a no-op upstream.
func (s *Snapshot) FlairTemplate(flair core.Flair) (string, error) {
	id, ok := s.FlairTemplates[string(flair)]
	if !ok || id == "" {
		return "", core.ErrMissingFlairTemplate
	}
	return id, nil
}

// Response returns the template for key, preferring the wiki override
// over the built-in default.
func (s *Snapshot) Response(key string) string {
	if r, ok := s.Responses[key]; ok && r != "" {
		return r
	}
	return defaultResponses[key]
}

// UselessGif picks one denial GIF, or a flat denial when none are set.
func (s *Snapshot) UselessGif() string {
	if len(s.UselessGifs) == 0 {
		return "No."
	}
	return s.UselessGifs[rand.IntN(len(s.UselessGifs))]
}

// ThumbsUpGif picks one thank-you GIF.
func (s *Snapshot) ThumbsUpGif() string {
	if len(s.ThumbsUpGifs) == 0 {
		return "Thank you! \\o/"
	}
	return s.ThumbsUpGifs[rand.IntN(len(s.ThumbsUpGifs))]
}

// IsModerator reports whether username moderates the central community.
func (s *Snapshot) IsModerator(username string) bool {
	return lo.Contains(s.Moderators, username)
}

// Expand substitutes {name} tokens in a response template.
func Expand(tpl string, vars map[string]string) string {
	for k, v := range vars {
		tpl = strings.ReplaceAll(tpl, "{"+k+"}", v)
	}
	return tpl
}
