// Package reddit is the authenticated platform client plus the polite
// unauthenticated listing fetcher the scanner uses.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"resty.dev/v3"

	"transcribot/internal/config"
	"transcribot/internal/core"
)

const (
	tokenURL = "https://www.reddit.com/api/v1/access_token"
	apiBase  = "https://oauth.reddit.com"
)

type Client struct {
	Logger *slog.Logger
	Config *config.Config

	http *resty.Client

	mu       sync.Mutex
	tokenExp time.Time
}

var _ core.Platform = (*Client)(nil)

func (c *Client) Init(context.Context) error {
	c.Logger = c.Logger.With("component", "reddit.Client")
	c.http = resty.New().
		SetBaseURL(apiBase).
		SetHeader("User-Agent",
			fmt.Sprintf("golang:transcribot:v1 (by /u/%s)", c.Config.RedditUsername))
	return nil
}

func (c *Client) Shutdown(context.Context) error {
	return c.http.Close()
}

// ensureToken refreshes the OAuth token when it is within a minute of
// expiry. Password grant, per the platform's script-app flow.
func (c *Client) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.tokenExp) {
		return nil
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}

	resp, err := c.http.R().WithContext(ctx).
		SetBasicAuth(c.Config.RedditClientID, c.Config.RedditClientSecret).
		SetFormData(map[string]string{
			"grant_type": "password",
			"username":   c.Config.RedditUsername,
			"password":   c.Config.RedditPassword,
		}).
		SetResult(&tok).
		Post(tokenURL)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK || tok.AccessToken == "" {
		return fmt.Errorf("platform token request failed: %s", resp.Status())
	}

	c.http.SetAuthToken(tok.AccessToken)
	c.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	r := c.http.R().WithContext(ctx)
	if query != nil {
		r.SetQueryParamsFromValues(query)
	}

	resp, err := r.Get(path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, core.RateLimitError{Wait: time.Minute}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("platform GET %s: %s", path, resp.Status())
	}
	return resp.Bytes(), nil
}

func (c *Client) postForm(ctx context.Context, path string, form map[string]string) (apiResponse, error) {
	var out apiResponse

	if err := c.ensureToken(ctx); err != nil {
		return out, err
	}

	form["api_type"] = "json"
	resp, err := c.http.R().WithContext(ctx).
		SetFormData(form).
		SetResult(&out).
		Post(path)
	if err != nil {
		return out, err
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return out, core.RateLimitError{Wait: time.Minute}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return out, fmt.Errorf("platform POST %s: %s", path, resp.Status())
	}
	return out, out.err()
}

func (c *Client) Submit(ctx context.Context, subreddit, title, link string) (*core.Post, error) {
	out, err := c.postForm(ctx, "/api/submit", map[string]string{
		"sr":       subreddit,
		"kind":     "link",
		"title":    title,
		"url":      link,
		"resubmit": "true",
	})
	if err != nil {
		return nil, err
	}

	data := out.JSON.Data
	return &core.Post{
		Fullname:  data.Name,
		ID:        data.ID,
		Subreddit: subreddit,
		Title:     title,
		Author:    c.Config.BotUsername(),
		Permalink: data.URL,
		URL:       link,
	}, nil
}

func (c *Client) Reply(ctx context.Context, parentFullname, body string) (*core.Comment, error) {
	out, err := c.postForm(ctx, "/api/comment", map[string]string{
		"thing_id": parentFullname,
		"text":     body,
	})
	if err != nil {
		return nil, err
	}
	return out.firstComment()
}

func (c *Client) SelectFlair(ctx context.Context, subreddit, linkFullname, templateID string) error {
	_, err := c.postForm(ctx, "/r/"+subreddit+"/api/selectflair", map[string]string{
		"link":              linkFullname,
		"flair_template_id": templateID,
	})
	return err
}

func (c *Client) SetUserFlair(ctx context.Context, subreddit, username, text, cssClass string) error {
	_, err := c.postForm(ctx, "/r/"+subreddit+"/api/flair", map[string]string{
		"name":      username,
		"text":      text,
		"css_class": cssClass,
	})
	return err
}

func (c *Client) Remove(ctx context.Context, fullname string) error {
	_, err := c.postForm(ctx, "/api/remove", map[string]string{
		"id":   fullname,
		"spam": "false",
	})
	return err
}

func (c *Client) UnreadMail(ctx context.Context) ([]core.Mail, error) {
	raw, err := c.get(ctx, "/message/unread", url.Values{"limit": {"100"}})
	if err != nil {
		return nil, err
	}

	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, err
	}

	var mail []core.Mail
	for _, child := range l.Data.Children {
		var d messageData
		if err := json.Unmarshal(child.Data, &d); err != nil {
			continue
		}
		mail = append(mail, d.toMail())
	}
	return mail, nil
}

func (c *Client) MarkRead(ctx context.Context, mailFullname string) error {
	_, err := c.postForm(ctx, "/api/read_message", map[string]string{
		"id": mailFullname,
	})
	return err
}

func (c *Client) SendMessage(ctx context.Context, to, subject, body string) error {
	_, err := c.postForm(ctx, "/api/compose", map[string]string{
		"to":      to,
		"subject": subject,
		"text":    body,
	})
	return err
}

func (c *Client) GetPost(ctx context.Context, fullname string) (*core.Post, error) {
	raw, err := c.get(ctx, "/api/info", url.Values{"id": {fullname}})
	if err != nil {
		return nil, err
	}

	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, err
	}
	for _, child := range l.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var d postData
		if err := json.Unmarshal(child.Data, &d); err != nil {
			return nil, err
		}
		return d.toPost(), nil
	}
	return nil, fmt.Errorf("no post with id %s", fullname)
}

func (c *Client) GetComment(ctx context.Context, fullname string) (*core.Comment, error) {
	raw, err := c.get(ctx, "/api/info", url.Values{"id": {fullname}})
	if err != nil {
		return nil, err
	}

	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, err
	}
	comments := decodeComments(l.Data.Children)
	if len(comments) == 0 {
		return nil, fmt.Errorf("no comment with id %s", fullname)
	}
	return &comments[0], nil
}

func (c *Client) PostByURL(ctx context.Context, link string) (*core.Post, error) {
	pages, err := c.thread(ctx, link)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 || len(pages[0].Data.Children) == 0 {
		return nil, fmt.Errorf("no post at %s", link)
	}

	var d postData
	if err := json.Unmarshal(pages[0].Data.Children[0].Data, &d); err != nil {
		return nil, err
	}
	return d.toPost(), nil
}

func (c *Client) CommentByURL(ctx context.Context, link string) (*core.Comment, error) {
	pages, err := c.thread(ctx, link)
	if err != nil {
		return nil, err
	}
	if len(pages) < 2 {
		return nil, fmt.Errorf("no comment at %s", link)
	}
	comments := decodeComments(pages[1].Data.Children)
	if len(comments) == 0 {
		return nil, fmt.Errorf("no comment at %s", link)
	}
	return &comments[0], nil
}

func (c *Client) TopLevelComments(ctx context.Context, post *core.Post) ([]core.Comment, error) {
	pages, err := c.thread(ctx, post.Permalink)
	if err != nil {
		return nil, err
	}
	if len(pages) < 2 {
		return nil, nil
	}
	return decodeComments(pages[1].Data.Children), nil
}

func (c *Client) Replies(ctx context.Context, comment *core.Comment) ([]core.Comment, error) {
	pages, err := c.thread(ctx, comment.Permalink)
	if err != nil {
		return nil, err
	}
	if len(pages) < 2 || len(pages[1].Data.Children) == 0 {
		return nil, nil
	}

	var d commentData
	if err := json.Unmarshal(pages[1].Data.Children[0].Data, &d); err != nil {
		return nil, err
	}
	if len(d.Replies) == 0 || string(d.Replies) == `""` {
		return nil, nil
	}

	var replies listing
	if err := json.Unmarshal(d.Replies, &replies); err != nil {
		return nil, err
	}
	return decodeComments(replies.Data.Children), nil
}

func (c *Client) UserComments(ctx context.Context, username string, limit int) ([]core.Comment, error) {
	raw, err := c.get(ctx, "/user/"+username+"/comments",
		url.Values{"limit": {strconv.Itoa(limit)}, "sort": {"new"}})
	if err != nil {
		return nil, err
	}

	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, err
	}
	return decodeComments(l.Data.Children), nil
}

func (c *Client) NewPosts(ctx context.Context, subreddit string, limit int) ([]core.Post, error) {
	raw, err := c.get(ctx, "/r/"+subreddit+"/new",
		url.Values{"limit": {strconv.Itoa(limit)}})
	if err != nil {
		return nil, err
	}

	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, err
	}

	var posts []core.Post
	for _, child := range l.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var d postData
		if err := json.Unmarshal(child.Data, &d); err != nil {
			continue
		}
		posts = append(posts, *d.toPost())
	}
	return posts, nil
}

func (c *Client) Moderators(ctx context.Context, subreddit string) ([]string, error) {
	raw, err := c.get(ctx, "/r/"+subreddit+"/about/moderators", nil)
	if err != nil {
		return nil, err
	}

	var ul struct {
		Data struct {
			Children []struct {
				Name string `json:"name"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &ul); err != nil {
		return nil, err
	}

	mods := make([]string, 0, len(ul.Data.Children))
	for _, m := range ul.Data.Children {
		mods = append(mods, m.Name)
	}
	return mods, nil
}

func (c *Client) WikiPage(ctx context.Context, subreddit, page string) (string, error) {
	raw, err := c.get(ctx, "/r/"+subreddit+"/wiki/"+page, nil)
	if err != nil {
		return "", err
	}

	var wp struct {
		Data struct {
			ContentMD string `json:"content_md"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &wp); err != nil {
		return "", err
	}
	return wp.Data.ContentMD, nil
}

// thread fetches a permalink's comment pages. Accepts full URLs and
// site-relative permalinks.
func (c *Client) thread(ctx context.Context, link string) ([]listing, error) {
	path := link
	if u, err := url.Parse(link); err == nil && u.Host != "" {
		path = u.Path
	}
	path = strings.TrimSuffix(path, "/") + ".json"

	raw, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	var pages []listing
	if err := json.Unmarshal(raw, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}
