package core

import (
	"fmt"
	"strings"
	"time"
)

// Flair is the single label a mirror post carries in the central community.
type Flair string

const (
	FlairUnclaimed         Flair = "Unclaimed"
	FlairSummonedUnclaimed Flair = "Summoned - Unclaimed"
	FlairInProgress        Flair = "In Progress"
	FlairCompleted         Flair = "Completed!"
	FlairMeta              Flair = "Meta"
	FlairDisregard         Flair = "Disregard"
)

// ContentType routes a discovered post to its format template.
type ContentType string

const (
	ContentImage   ContentType = "image"
	ContentAudio   ContentType = "audio"
	ContentVideo   ContentType = "video"
	ContentGallery ContentType = "gallery"
	ContentOther   ContentType = "other"
)

// PostSummary is the normalized shape the scanner emits for a candidate post.
type PostSummary struct {
	Subreddit string `json:"subreddit"`
	// ID is the platform identifier with its type prefix stripped.
	ID        string `json:"id"`
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
	Author    string `json:"author"`
	Domain    string `json:"domain"`
	Ups       int    `json:"ups"`
	NSFW      bool   `json:"nsfw"`
	Archived  bool   `json:"archived"`
	Locked    bool   `json:"locked"`
	Gallery   bool   `json:"is_gallery"`
	URL       string `json:"url"`
}

// Fullname returns the platform identifier with its submission prefix.
func (p PostSummary) Fullname() string {
	return "t3_" + p.ID
}

// FullURL resolves the site-relative permalink into the absolute URL the
// registry keys submissions by.
func (p PostSummary) FullURL() string {
	return PermalinkURL(p.Permalink)
}

// PermalinkURL resolves a site-relative permalink to an absolute URL.
func PermalinkURL(permalink string) string {
	if strings.HasPrefix(permalink, "http") {
		return permalink
	}
	return "https://www.reddit.com" + permalink
}

// Submission is the registry's record of a mirrored post.
type Submission struct {
	ID          string    `json:"id"`
	OriginalID  string    `json:"original_id"`
	TorURL      string    `json:"tor_url"`
	URL         string    `json:"url"`
	ContentURL  string    `json:"content_url"`
	Title       string    `json:"title"`
	NSFW        bool      `json:"nsfw"`
	ClaimedBy   string    `json:"claimed_by,omitempty"`
	CompletedBy string    `json:"completed_by,omitempty"`
	CreateTime  time.Time `json:"create_time"`
}

// Volunteer is the registry's record of a transcriber.
type Volunteer struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	AcceptedCoC bool   `json:"accepted_coc"`
	Gamma       int    `json:"gamma"`
}

// Status is the outcome class of a registry operation, mapped from HTTP codes.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusOtherUser
	StatusAlreadyCompleted
	StatusMissingPrerequisite
	StatusServerError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusOtherUser:
		return "other_user"
	case StatusAlreadyCompleted:
		return "already_completed"
	case StatusMissingPrerequisite:
		return "missing_prerequisite"
	default:
		return "server_error"
	}
}

// BeginState is the result of Ledger.TryBegin.
type BeginState int

const (
	// BeginFresh means the id was never seen; the caller owns it now.
	BeginFresh BeginState = iota
	// BeginInFlight means a previous attempt started but never finished.
	BeginInFlight
	// BeginFinished means the id is terminally done; skip it.
	BeginFinished
)

// FormattingIssue is one structural defect found in a transcription body.
type FormattingIssue string

const (
	IssueBoldHeader        FormattingIssue = "BOLD_HEADER"
	IssueMissingSeparators FormattingIssue = "MISSING_SEPARATORS"
	IssueHeadingWithDashes FormattingIssue = "HEADING_WITH_DASHES"
	IssueMalformedFooter   FormattingIssue = "MALFORMED_FOOTER"
	IssueFencedCodeBlock   FormattingIssue = "FENCED_CODE_BLOCK"
	IssueUnescapedHeading  FormattingIssue = "UNESCAPED_HEADING"
	IssueUnescapedUsername FormattingIssue = "UNESCAPED_USERNAME"
	IssueUnescapedSub      FormattingIssue = "UNESCAPED_SUBREDDIT"
	IssueIncorrectBreak    FormattingIssue = "INCORRECT_LINE_BREAK"
	IssueInvalidHeader     FormattingIssue = "INVALID_HEADER"
	IssueReferenceLink     FormattingIssue = "REFERENCE_LINK"
)

// Post is a submission on the platform. Posts and Comments are distinct
// tagged shapes with explicit fields; nothing duck-types between them.
type Post struct {
	Fullname   string
	ID         string
	Subreddit  string
	Title      string
	Author     string
	Permalink  string
	URL        string
	FlairText  string
	CreatedUTC float64
	Removed    bool
	NumReports int
}

// UnknownContentPost builds the placeholder post used when a username
// mention summons the bot onto content it cannot resolve.
func UnknownContentPost(subreddit, permalink string) *Post {
	return &Post{
		Subreddit: subreddit,
		Title:     "Unknown Content",
		Permalink: permalink,
	}
}

// Comment is a comment on the platform.
type Comment struct {
	Fullname   string
	ID         string
	Author     string
	Body       string
	Permalink  string
	ParentID   string
	LinkID     string
	Subreddit  string
	CreatedUTC float64
}

// IsTopLevel reports whether the comment replies directly to a post.
func (c Comment) IsTopLevel() bool {
	return strings.HasPrefix(c.ParentID, "t3_")
}

// Mail is one unread inbox item.
type Mail struct {
	Fullname   string
	Author     string
	Subject    string
	Body       string
	WasComment bool
	ParentID   string
	Context    string
	CreatedUTC float64
}

// RateLimitError carries the wait the platform asked for. Callers sleep
// the wait plus one second before resuming.
type RateLimitError struct {
	Wait time.Duration
}

func (e RateLimitError) Error() string {
	return fmt.Sprintf("platform rate limit: retry in %s", e.Wait)
}
