package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"transcribot/internal/config"
	"transcribot/internal/core"
)

const (
	botName   = "transcribot"
	centralTo = "TranscribersOfReddit"
)

var errFake = errors.New("injected failure")

type staticSnapshots struct {
	snap *config.Snapshot
}

func (s staticSnapshots) Current() *config.Snapshot { return s.snap }

func testSnapshot() *config.Snapshot {
	return &config.Snapshot{
		ImageDomains: []string{"i.redd.it"},
		AudioDomains: []string{"soundcloud.com"},
		VideoDomains: []string{"youtube.com", "v.redd.it"},
		FlairTemplates: map[string]string{
			"Unclaimed":            "tpl-unclaimed",
			"In Progress":          "tpl-progress",
			"Completed!":           "tpl-completed",
			"Meta":                 "tpl-meta",
			"Summoned - Unclaimed": "tpl-summoned",
		},
		Moderators:         []string{"modkat"},
		PerformHeaderCheck: true,
	}
}

type submitCall struct {
	subreddit, title, url string
}

type replyCall struct {
	parent, body string
}

type flairCall struct {
	fullname, templateID string
}

type userFlairCall struct {
	username, text, css string
}

type fakePlatform struct {
	core.Platform

	posts        map[string]*core.Post
	postsByURL   map[string]*core.Post
	comments     map[string]*core.Comment
	topLevel     map[string][]core.Comment
	replies      map[string][]core.Comment
	userComments map[string][]core.Comment
	newPosts     []core.Post

	submitted  []submitCall
	replied    []replyCall
	flairs     []flairCall
	userFlairs []userFlairCall
	removed    []string

	replyErr error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		posts:        map[string]*core.Post{},
		postsByURL:   map[string]*core.Post{},
		comments:     map[string]*core.Comment{},
		topLevel:     map[string][]core.Comment{},
		replies:      map[string][]core.Comment{},
		userComments: map[string][]core.Comment{},
	}
}

func (f *fakePlatform) Submit(_ context.Context, subreddit, title, url string) (*core.Post, error) {
	f.submitted = append(f.submitted, submitCall{subreddit, title, url})
	return &core.Post{
		Fullname:  "t3_mirror",
		ID:        "mirror",
		Subreddit: subreddit,
		Title:     title,
		Author:    botName,
		Permalink: "/r/" + subreddit + "/comments/mirror/x/",
		URL:       url,
	}, nil
}

func (f *fakePlatform) Reply(_ context.Context, parent, body string) (*core.Comment, error) {
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	f.replied = append(f.replied, replyCall{parent, body})
	return &core.Comment{Fullname: "t1_botreply", Author: botName, Body: body, ParentID: parent}, nil
}

func (f *fakePlatform) SelectFlair(_ context.Context, _, fullname, templateID string) error {
	f.flairs = append(f.flairs, flairCall{fullname, templateID})
	return nil
}

func (f *fakePlatform) SetUserFlair(_ context.Context, _, username, text, css string) error {
	f.userFlairs = append(f.userFlairs, userFlairCall{username, text, css})
	return nil
}

func (f *fakePlatform) Remove(_ context.Context, fullname string) error {
	f.removed = append(f.removed, fullname)
	return nil
}

func (f *fakePlatform) GetPost(_ context.Context, fullname string) (*core.Post, error) {
	return f.posts[fullname], nil
}

func (f *fakePlatform) PostByURL(_ context.Context, url string) (*core.Post, error) {
	return f.postsByURL[url], nil
}

func (f *fakePlatform) GetComment(_ context.Context, fullname string) (*core.Comment, error) {
	return f.comments[fullname], nil
}

func (f *fakePlatform) CommentByURL(_ context.Context, url string) (*core.Comment, error) {
	return f.comments[url], nil
}

func (f *fakePlatform) TopLevelComments(_ context.Context, post *core.Post) ([]core.Comment, error) {
	return f.topLevel[post.Fullname], nil
}

func (f *fakePlatform) Replies(_ context.Context, comment *core.Comment) ([]core.Comment, error) {
	return f.replies[comment.Fullname], nil
}

func (f *fakePlatform) UserComments(_ context.Context, username string, _ int) ([]core.Comment, error) {
	return f.userComments[username], nil
}

func (f *fakePlatform) NewPosts(_ context.Context, _ string, _ int) ([]core.Post, error) {
	return f.newPosts, nil
}

type claimCall struct {
	submissionID string
	volunteerID  int64
}

type doneCall struct {
	submissionID, username string
	override               bool
}

type fakeRegistry struct {
	core.Registry

	submissionsByURL map[string]*core.Submission
	volunteers       map[string]*core.Volunteer

	claimStatus   core.Status
	doneStatus    core.Status
	unclaimStatus core.Status

	created  []core.NewSubmission
	claims   []claimCall
	dones    []doneCall
	unclaims []string
	newVols  []string
	cocSet   []int64
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		submissionsByURL: map[string]*core.Submission{},
		volunteers:       map[string]*core.Volunteer{},
	}
}

func (f *fakeRegistry) GetSubmissionByURL(_ context.Context, url string) (*core.Submission, core.Status, error) {
	sub, ok := f.submissionsByURL[url]
	if !ok {
		return nil, core.StatusNotFound, nil
	}
	return sub, core.StatusOK, nil
}

func (f *fakeRegistry) CreateSubmission(_ context.Context, sub core.NewSubmission) (*core.Submission, core.Status, error) {
	f.created = append(f.created, sub)
	return &core.Submission{ID: "reg-1", OriginalID: sub.OriginalID, URL: sub.URL}, core.StatusOK, nil
}

func (f *fakeRegistry) Claim(_ context.Context, submissionID string, volunteerID int64) (core.Status, error) {
	f.claims = append(f.claims, claimCall{submissionID, volunteerID})
	return f.claimStatus, nil
}

func (f *fakeRegistry) Unclaim(_ context.Context, submissionID, _ string) (core.Status, error) {
	f.unclaims = append(f.unclaims, submissionID)
	return f.unclaimStatus, nil
}

func (f *fakeRegistry) Done(_ context.Context, submissionID, username string, override bool) (core.Status, error) {
	f.dones = append(f.dones, doneCall{submissionID, username, override})
	return f.doneStatus, nil
}

func (f *fakeRegistry) GetVolunteer(_ context.Context, username string) (*core.Volunteer, core.Status, error) {
	vol, ok := f.volunteers[username]
	if !ok {
		return nil, core.StatusNotFound, nil
	}
	return vol, core.StatusOK, nil
}

func (f *fakeRegistry) CreateVolunteer(_ context.Context, username string) (*core.Volunteer, core.Status, error) {
	f.newVols = append(f.newVols, username)
	vol := &core.Volunteer{ID: int64(len(f.newVols)), Username: username}
	f.volunteers[username] = vol
	return vol, core.StatusOK, nil
}

func (f *fakeRegistry) SetCoC(_ context.Context, volunteerID int64) (core.Status, error) {
	f.cocSet = append(f.cocSet, volunteerID)
	for _, vol := range f.volunteers {
		if vol.ID == volunteerID {
			vol.AcceptedCoC = true
		}
	}
	return core.StatusOK, nil
}

type fakeLedger struct {
	started  map[string]bool
	finished map[string]bool
	beginErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{started: map[string]bool{}, finished: map[string]bool{}}
}

func (f *fakeLedger) TryBegin(_ context.Context, id string) (core.BeginState, error) {
	if f.beginErr != nil {
		return 0, f.beginErr
	}
	if f.finished[id] {
		return core.BeginFinished, nil
	}
	if f.started[id] {
		return core.BeginInFlight, nil
	}
	f.started[id] = true
	return core.BeginFresh, nil
}

func (f *fakeLedger) MarkFinished(_ context.Context, id string) error {
	f.finished[id] = true
	return nil
}

func (f *fakeLedger) IsFinished(_ context.Context, id string) (bool, error) {
	return f.finished[id], nil
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) Send(_ context.Context, text string) {
	f.sent = append(f.sent, text)
}

type fakeCaptions struct {
	captioned bool
}

func (f fakeCaptions) HasCaptions(context.Context, string) (bool, error) {
	return f.captioned, nil
}

type fakeTiers struct{}

func (fakeTiers) Tier(gamma int) (string, string) {
	return "tier-text", "tier-css"
}

type stateEntry struct {
	key   string
	value []byte
}

func (e stateEntry) Bucket() string                  { return "state" }
func (e stateEntry) Key() string                     { return e.key }
func (e stateEntry) Value() []byte                   { return e.value }
func (e stateEntry) Revision() uint64                { return 1 }
func (e stateEntry) Created() time.Time              { return time.Time{} }
func (e stateEntry) Delta() uint64                   { return 0 }
func (e stateEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }

type fakeState struct {
	values map[string][]byte
}

func newFakeState() *fakeState {
	return &fakeState{values: map[string][]byte{}}
}

func (f *fakeState) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return stateEntry{key: key, value: v}, nil
}

func (f *fakeState) Put(_ context.Context, key string, value []byte) (uint64, error) {
	f.values[key] = value
	return 1, nil
}

type engineFixture struct {
	engine   *Engine
	snap     *config.Snapshot
	platform *fakePlatform
	registry *fakeRegistry
	ledger   *fakeLedger
	notifier *fakeNotifier
	captions *fakeCaptions
	state    *fakeState
}

func newFixture() *engineFixture {
	f := &engineFixture{
		snap:     testSnapshot(),
		platform: newFakePlatform(),
		registry: newFakeRegistry(),
		ledger:   newFakeLedger(),
		notifier: &fakeNotifier{},
		captions: &fakeCaptions{},
		state:    newFakeState(),
	}
	f.engine = &Engine{
		Logger: slog.Default(),
		Config: &config.Config{
			RedditUsername:   botName,
			CentralSubreddit: centralTo,
			AllowModOverride: true,
		},
		Store:    staticSnapshots{f.snap},
		Ledger:   f.ledger,
		Registry: f.registry,
		Platform: f.platform,
		Notifier: f.notifier,
		Captions: f.captions,
		Tiers:    fakeTiers{},
		state:    f.state,
	}
	return f
}

// seedMirror installs a mirror post authored by the bot, the original
// post behind it, and the registry record joining them.
func (f *engineFixture) seedMirror(claimedBy, completedBy string) (*core.Post, *core.Post, *core.Submission) {
	originalURL := "https://www.reddit.com/r/pics/comments/orig1/cool_pic/"
	original := &core.Post{
		Fullname:  "t3_orig1",
		ID:        "orig1",
		Subreddit: "pics",
		Author:    "op_user",
		Permalink: "/r/pics/comments/orig1/cool_pic/",
		URL:       "https://i.redd.it/cool.jpg",
	}
	mirror := &core.Post{
		Fullname:  "t3_mirror",
		ID:        "mirror",
		Subreddit: centralTo,
		Author:    botName,
		Permalink: "/r/" + centralTo + "/comments/mirror/x/",
		URL:       originalURL,
	}
	sub := &core.Submission{
		ID:          "reg-1",
		OriginalID:  original.Fullname,
		URL:         originalURL,
		ClaimedBy:   claimedBy,
		CompletedBy: completedBy,
	}

	f.platform.posts[mirror.Fullname] = mirror
	f.platform.postsByURL[originalURL] = original
	f.registry.submissionsByURL[originalURL] = sub
	return mirror, original, sub
}

func mirrorComment(author, body string) *core.Comment {
	return &core.Comment{
		Fullname: "t1_" + author,
		Author:   author,
		Body:     body,
		ParentID: "t1_botreply",
		LinkID:   "t3_mirror",
	}
}
