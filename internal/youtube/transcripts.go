// Package youtube recognizes video URLs and probes them for existing
// auto-generated captions. Videos that already have captions need no
// volunteer.
package youtube

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"resty.dev/v3"

	"transcribot/internal/core"
)

const timedTextURL = "https://video.google.com/timedtext"

var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?.*?v=|youtu\.be/)([\w-]{6,})`)

// IsVideoURL reports whether link points at a single video. Channel, user
// and playlist URLs are not videos.
func IsVideoURL(link string) bool {
	if !strings.Contains(link, "youtube.com") && !strings.Contains(link, "youtu.be") {
		return false
	}
	for _, fragment := range []string{"/channel/", "/user/", "/playlist", "/c/"} {
		if strings.Contains(link, fragment) {
			return false
		}
	}
	return videoIDPattern.MatchString(link)
}

// VideoID extracts the video identifier from a video URL.
func VideoID(link string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

type Transcripts struct {
	Logger *slog.Logger

	http *resty.Client
}

var _ core.CaptionLookup = (*Transcripts)(nil)

func (t *Transcripts) Init(context.Context) error {
	t.Logger = t.Logger.With("component", "youtube.Transcripts")
	t.http = resty.New().SetBaseURL(timedTextURL)
	return nil
}

func (t *Transcripts) Shutdown(context.Context) error {
	return t.http.Close()
}

// HasCaptions asks the caption endpoint whether the video carries an
// English track. An empty body means no captions.
func (t *Transcripts) HasCaptions(ctx context.Context, videoURL string) (bool, error) {
	id, ok := VideoID(videoURL)
	if !ok {
		return false, nil
	}

	resp, err := t.http.R().WithContext(ctx).
		SetQueryParam("lang", "en").
		SetQueryParam("v", id).
		Get("")
	if err != nil {
		return false, err
	}
	if resp.StatusCode() != http.StatusOK {
		return false, nil
	}
	return strings.TrimSpace(resp.String()) != "", nil
}
