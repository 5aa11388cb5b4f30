package reddit

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"transcribot/internal/core"
)

var rateLimitPattern = regexp.MustCompile(`try again in (\d+) (second|minute|hour)s?`)

// parseRateLimit extracts the wait from the platform's human-readable
// rate-limit message.
func parseRateLimit(msg string) (core.RateLimitError, bool) {
	m := rateLimitPattern.FindStringSubmatch(msg)
	if m == nil {
		return core.RateLimitError{}, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return core.RateLimitError{}, false
	}

	unit := time.Second
	switch m[2] {
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	}
	return core.RateLimitError{Wait: time.Duration(n) * unit}, true
}

// apiResponse is the envelope returned by api_type=json write endpoints.
type apiResponse struct {
	JSON struct {
		Errors [][]string `json:"errors"`
		Data   struct {
			Things []thing `json:"things"`
			URL    string  `json:"url"`
			Name   string  `json:"name"`
			ID     string  `json:"id"`
		} `json:"data"`
	} `json:"json"`
}

func (r apiResponse) err() error {
	for _, e := range r.JSON.Errors {
		var code, msg string
		if len(e) > 0 {
			code = e[0]
		}
		if len(e) > 1 {
			msg = e[1]
		}

		switch code {
		case "RATELIMIT":
			if rl, ok := parseRateLimit(msg); ok {
				return rl
			}
			return core.RateLimitError{Wait: time.Minute}
		case "DELETED_COMMENT", "DELETED_LINK":
			return core.ErrDeletedComment
		default:
			return fmt.Errorf("platform api error %s: %s", code, msg)
		}
	}
	return nil
}

func (r apiResponse) firstComment() (*core.Comment, error) {
	for _, th := range r.JSON.Data.Things {
		if th.Kind != "t1" {
			continue
		}
		var d commentData
		if err := json.Unmarshal(th.Data, &d); err != nil {
			return nil, err
		}
		c := d.toComment()
		return &c, nil
	}
	return nil, fmt.Errorf("platform response carried no comment")
}
