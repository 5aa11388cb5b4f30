// Package registry is the typed client for the external registry that
// persists submissions and volunteers. The registry owns claim/done state;
// its rejection codes are authoritative, never retried around.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strconv"

	"resty.dev/v3"

	"transcribot/internal/config"
	"transcribot/internal/core"
)

type Client struct {
	Logger *slog.Logger
	Config *config.Config

	http *resty.Client
	auth *authenticator
}

var _ core.Registry = (*Client)(nil)

func (c *Client) Init(context.Context) error {
	c.Logger = c.Logger.With("component", "registry.Client")

	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}

	c.http = resty.New().
		SetBaseURL(c.Config.RegistryURL).
		SetCookieJar(jar).
		SetHeader("Authorization", "Api-Key "+c.Config.RegistryAPIKey)

	c.auth = &authenticator{
		Logger: c.Logger,
		Config: c.Config,
		http:   c.http,
	}
	return nil
}

func (c *Client) Shutdown(context.Context) error {
	return c.http.Close()
}

func statusOf(resp *resty.Response) core.Status {
	switch resp.StatusCode() {
	case 200, 201:
		return core.StatusOK
	case 404:
		return core.StatusNotFound
	case 406:
		return core.StatusOtherUser
	case 409:
		return core.StatusAlreadyCompleted
	case 412:
		return core.StatusMissingPrerequisite
	default:
		return core.StatusServerError
	}
}

func (c *Client) GetSubmission(ctx context.Context, id string) (*core.Submission, core.Status, error) {
	return c.getSubmission(ctx, "submission_id", id)
}

func (c *Client) GetSubmissionByURL(ctx context.Context, url string) (*core.Submission, core.Status, error) {
	return c.getSubmission(ctx, "url", url)
}

func (c *Client) getSubmission(ctx context.Context, param, value string) (*core.Submission, core.Status, error) {
	var subs []core.Submission
	resp, err := c.auth.send(ctx, request{
		method: http.MethodGet,
		path:   "/submission/",
		query:  map[string]string{param: value},
		result: &subs,
	})
	if err != nil {
		return nil, core.StatusServerError, err
	}
	status := statusOf(resp)
	if status != core.StatusOK || len(subs) == 0 {
		if status == core.StatusOK {
			status = core.StatusNotFound
		}
		return nil, status, nil
	}
	return &subs[0], status, nil
}

func (c *Client) CreateSubmission(ctx context.Context, sub core.NewSubmission) (*core.Submission, core.Status, error) {
	var created core.Submission
	resp, err := c.auth.send(ctx, request{
		method: http.MethodPost,
		path:   "/submission/",
		form: map[string]string{
			"original_id": sub.OriginalID,
			"tor_url":     sub.TorURL,
			"url":         sub.URL,
			"content_url": sub.ContentURL,
			"title":       sub.Title,
			"nsfw":        strconv.FormatBool(sub.NSFW),
		},
		result: &created,
	})
	if err != nil {
		return nil, core.StatusServerError, err
	}
	status := statusOf(resp)
	if status != core.StatusOK {
		return nil, status, nil
	}
	return &created, status, nil
}

func (c *Client) DeleteSubmission(ctx context.Context, id string) (core.Status, error) {
	resp, err := c.auth.send(ctx, request{
		method: http.MethodDelete,
		path:   "/submission/" + id,
	})
	if err != nil {
		return core.StatusServerError, err
	}
	return statusOf(resp), nil
}

func (c *Client) Claim(ctx context.Context, submissionID string, volunteerID int64) (core.Status, error) {
	resp, err := c.auth.send(ctx, request{
		method: http.MethodPost,
		path:   "/submission/" + submissionID + "/claim/",
		form:   map[string]string{"volunteer_id": strconv.FormatInt(volunteerID, 10)},
	})
	if err != nil {
		return core.StatusServerError, err
	}
	return statusOf(resp), nil
}

func (c *Client) Unclaim(ctx context.Context, submissionID, username string) (core.Status, error) {
	resp, err := c.auth.send(ctx, request{
		method: http.MethodPost,
		path:   "/submission/" + submissionID + "/unclaim/",
		form:   map[string]string{"username": username},
	})
	if err != nil {
		return core.StatusServerError, err
	}
	return statusOf(resp), nil
}

func (c *Client) Done(ctx context.Context, submissionID, username string, modOverride bool) (core.Status, error) {
	resp, err := c.auth.send(ctx, request{
		method: http.MethodPost,
		path:   "/submission/" + submissionID + "/done/",
		form: map[string]string{
			"username":     username,
			"mod_override": strconv.FormatBool(modOverride),
		},
	})
	if err != nil {
		return core.StatusServerError, err
	}
	return statusOf(resp), nil
}

func (c *Client) GetVolunteer(ctx context.Context, username string) (*core.Volunteer, core.Status, error) {
	var vols []core.Volunteer
	resp, err := c.auth.send(ctx, request{
		method: http.MethodGet,
		path:   "/volunteer/",
		query:  map[string]string{"username": username},
		result: &vols,
	})
	if err != nil {
		return nil, core.StatusServerError, err
	}
	status := statusOf(resp)
	if status != core.StatusOK || len(vols) == 0 {
		if status == core.StatusOK {
			status = core.StatusNotFound
		}
		return nil, status, nil
	}
	return &vols[0], status, nil
}

func (c *Client) CreateVolunteer(ctx context.Context, username string) (*core.Volunteer, core.Status, error) {
	var created core.Volunteer
	resp, err := c.auth.send(ctx, request{
		method: http.MethodPost,
		path:   "/volunteer/",
		form:   map[string]string{"username": username},
		result: &created,
	})
	if err != nil {
		return nil, core.StatusServerError, err
	}
	status := statusOf(resp)
	if status != core.StatusOK {
		return nil, status, nil
	}
	return &created, status, nil
}

func (c *Client) SetCoC(ctx context.Context, volunteerID int64) (core.Status, error) {
	return c.Patch(ctx, "/volunteer/"+strconv.FormatInt(volunteerID, 10)+"/",
		map[string]any{"accepted_coc": true})
}

func (c *Client) Patch(ctx context.Context, path string, body map[string]any) (core.Status, error) {
	form := make(map[string]string, len(body))
	for k, v := range body {
		switch v := v.(type) {
		case string:
			form[k] = v
		case bool:
			form[k] = strconv.FormatBool(v)
		default:
			form[k] = fmt.Sprint(v)
		}
	}

	resp, err := c.auth.send(ctx, request{
		method: http.MethodPatch,
		path:   path,
		form:   form,
	})
	if err != nil {
		return core.StatusServerError, err
	}
	return statusOf(resp), nil
}

// BulkCheck returns the subset of urls the registry has never seen.
func (c *Client) BulkCheck(ctx context.Context, urls []string) ([]string, error) {
	var unknown []string
	resp, err := c.auth.send(ctx, request{
		method: http.MethodPost,
		path:   "/submission/bulkcheck/",
		json:   map[string][]string{"urls": urls},
		result: &unknown,
	})
	if err != nil {
		return nil, err
	}
	if status := statusOf(resp); status != core.StatusOK {
		return nil, fmt.Errorf("bulkcheck: registry answered %s", status)
	}
	return unknown, nil
}
