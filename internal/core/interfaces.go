package core

import (
	"context"
)

// Ledger is the process's only durable dedup: a network-attached pair of
// id sets (started, finished) consulted before any mirror is created.
type Ledger interface {
	TryBegin(ctx context.Context, id string) (BeginState, error)
	MarkFinished(ctx context.Context, id string) error
	IsFinished(ctx context.Context, id string) (bool, error)
}

// Registry persists submissions and volunteers and owns claim/done state.
// The error return covers transport failures only; domain outcomes travel
// in the Status.
type Registry interface {
	GetSubmissionByURL(ctx context.Context, url string) (*Submission, Status, error)
	GetSubmission(ctx context.Context, id string) (*Submission, Status, error)
	CreateSubmission(ctx context.Context, sub NewSubmission) (*Submission, Status, error)
	DeleteSubmission(ctx context.Context, id string) (Status, error)
	Claim(ctx context.Context, submissionID string, volunteerID int64) (Status, error)
	Unclaim(ctx context.Context, submissionID, username string) (Status, error)
	Done(ctx context.Context, submissionID, username string, modOverride bool) (Status, error)
	GetVolunteer(ctx context.Context, username string) (*Volunteer, Status, error)
	CreateVolunteer(ctx context.Context, username string) (*Volunteer, Status, error)
	SetCoC(ctx context.Context, volunteerID int64) (Status, error)
	Patch(ctx context.Context, path string, body map[string]any) (Status, error)
	// BulkCheck returns the subset of urls the registry does not know yet.
	BulkCheck(ctx context.Context, urls []string) ([]string, error)
}

// NewSubmission is the payload for Registry.CreateSubmission.
type NewSubmission struct {
	OriginalID string `json:"original_id"`
	TorURL     string `json:"tor_url"`
	URL        string `json:"url"`
	ContentURL string `json:"content_url"`
	Title      string `json:"title"`
	NSFW       bool   `json:"nsfw"`
}

// Platform is the authenticated client for the social platform the bot
// moderates on.
type Platform interface {
	Submit(ctx context.Context, subreddit, title, url string) (*Post, error)
	Reply(ctx context.Context, parentFullname, body string) (*Comment, error)
	SelectFlair(ctx context.Context, subreddit, linkFullname, templateID string) error
	SetUserFlair(ctx context.Context, subreddit, username, text, cssClass string) error
	Remove(ctx context.Context, fullname string) error

	UnreadMail(ctx context.Context) ([]Mail, error)
	MarkRead(ctx context.Context, mailFullname string) error
	SendMessage(ctx context.Context, to, subject, body string) error

	GetPost(ctx context.Context, fullname string) (*Post, error)
	GetComment(ctx context.Context, fullname string) (*Comment, error)
	PostByURL(ctx context.Context, url string) (*Post, error)
	CommentByURL(ctx context.Context, url string) (*Comment, error)
	TopLevelComments(ctx context.Context, post *Post) ([]Comment, error)
	Replies(ctx context.Context, comment *Comment) ([]Comment, error)
	UserComments(ctx context.Context, username string, limit int) ([]Comment, error)

	NewPosts(ctx context.Context, subreddit string, limit int) ([]Post, error)
	Moderators(ctx context.Context, subreddit string) ([]string, error)
	WikiPage(ctx context.Context, subreddit, page string) (string, error)
}

// Notifier forwards operator-facing notes to the chat webhook. Delivery is
// best-effort; failures are logged, never surfaced.
type Notifier interface {
	Send(ctx context.Context, text string)
}

// CaptionLookup probes a video URL for existing auto-generated captions.
type CaptionLookup interface {
	HasCaptions(ctx context.Context, videoURL string) (bool, error)
}

// FlairTiers maps a volunteer's gamma to their progression flair.
type FlairTiers interface {
	Tier(gamma int) (text, cssClass string)
}
