package reddit

import (
	"encoding/json"
	"strings"

	"transcribot/internal/core"
)

// thing is the platform's kind-tagged envelope. Kinds used here: t1
// (comment), t3 (submission), t4 (private message), Listing, wikipage.
type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listing struct {
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type postData struct {
	Name          string  `json:"name"`
	ID            string  `json:"id"`
	Subreddit     string  `json:"subreddit"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Permalink     string  `json:"permalink"`
	URL           string  `json:"url"`
	Domain        string  `json:"domain"`
	LinkFlairText string  `json:"link_flair_text"`
	Ups           int     `json:"ups"`
	Over18        bool    `json:"over_18"`
	Archived      bool    `json:"archived"`
	Locked        bool    `json:"locked"`
	IsSelf        bool    `json:"is_self"`
	IsGallery     bool    `json:"is_gallery"`
	CreatedUTC    float64 `json:"created_utc"`
	NumReports    int     `json:"num_reports"`
	RemovedBy     string  `json:"removed_by_category"`
}

func (d postData) toPost() *core.Post {
	return &core.Post{
		Fullname:   d.Name,
		ID:         d.ID,
		Subreddit:  d.Subreddit,
		Title:      d.Title,
		Author:     d.Author,
		Permalink:  d.Permalink,
		URL:        d.URL,
		FlairText:  d.LinkFlairText,
		CreatedUTC: d.CreatedUTC,
		Removed:    d.RemovedBy != "",
		NumReports: d.NumReports,
	}
}

func (d postData) toSummary() core.PostSummary {
	return core.PostSummary{
		Subreddit: d.Subreddit,
		ID:        strings.TrimPrefix(d.Name, "t3_"),
		Title:     d.Title,
		Permalink: d.Permalink,
		Author:    d.Author,
		Domain:    d.Domain,
		Ups:       d.Ups,
		NSFW:      d.Over18,
		Archived:  d.Archived,
		Locked:    d.Locked,
		Gallery:   d.IsGallery,
		URL:       d.URL,
	}
}

type commentData struct {
	Name       string  `json:"name"`
	ID         string  `json:"id"`
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	Permalink  string  `json:"permalink"`
	ParentID   string  `json:"parent_id"`
	LinkID     string  `json:"link_id"`
	Subreddit  string  `json:"subreddit"`
	CreatedUTC float64 `json:"created_utc"`

	// Replies is either a nested listing or an empty string.
	Replies json.RawMessage `json:"replies"`
}

func (d commentData) toComment() core.Comment {
	return core.Comment{
		Fullname:   d.Name,
		ID:         d.ID,
		Author:     d.Author,
		Body:       d.Body,
		Permalink:  d.Permalink,
		ParentID:   d.ParentID,
		LinkID:     d.LinkID,
		Subreddit:  d.Subreddit,
		CreatedUTC: d.CreatedUTC,
	}
}

type messageData struct {
	Name       string  `json:"name"`
	Author     string  `json:"author"`
	Subject    string  `json:"subject"`
	Body       string  `json:"body"`
	WasComment bool    `json:"was_comment"`
	ParentID   string  `json:"parent_id"`
	Context    string  `json:"context"`
	CreatedUTC float64 `json:"created_utc"`
}

func (d messageData) toMail() core.Mail {
	return core.Mail{
		Fullname:   d.Name,
		Author:     d.Author,
		Subject:    d.Subject,
		Body:       d.Body,
		WasComment: d.WasComment,
		ParentID:   d.ParentID,
		Context:    d.Context,
		CreatedUTC: d.CreatedUTC,
	}
}

func decodeComments(children []thing) []core.Comment {
	var out []core.Comment
	for _, child := range children {
		if child.Kind != "t1" {
			continue
		}
		var d commentData
		if err := json.Unmarshal(child.Data, &d); err != nil {
			continue
		}
		out = append(out, d.toComment())
	}
	return out
}
